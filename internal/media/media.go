package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	_ "image/jpeg"
)

// Sink consumes the raw bytes of a fetched media resource.
type Sink interface {
	Display(data []byte) error
}

// ViewerSink decodes a media payload, saves it as a PNG in the temp
// directory and opens it with the platform's default image viewer.
type ViewerSink struct{}

// Display decodes data (format auto-detected), writes it to
// <tempdir>/image_<n>.png with n drawn from [0, 100], and spawns the viewer
// detached. The random suffix keeps a new image from clobbering the file a
// viewer window may still have open; collisions simply overwrite.
func (ViewerSink) Display(data []byte) error {
	path, err := decodeAndSave(data)
	if err != nil {
		return err
	}
	return openViewer(path)
}

// decodeAndSave decodes data and writes it as a PNG under the temp
// directory, returning the file path.
func decodeAndSave(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode media: %w", err)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("image_%d.png", rand.Intn(101)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("[media] saved %s image to %s", format, path)
	return path, nil
}

// openViewer launches the platform default image viewer on path.
func openViewer(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/C", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open viewer for %s: %w", path, err)
	}
	return nil
}
