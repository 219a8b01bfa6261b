package queue

import (
	"sync"
	"testing"
	"time"
)

func TestSendReceiveOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		if err := q.Send(i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	for i := 0; i < 100; i++ {
		select {
		case v := <-q.C():
			if v != i {
				t.Fatalf("got %d, want %d", v, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	q := New[string]()
	q.Close()
	if err := q.Send("late"); err != ErrClosed {
		t.Fatalf("Send after Close: got %v, want ErrClosed", err)
	}
}

func TestCloseDrainsBufferedItems(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		if err := q.Send(i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	q.Close()

	var got []int
	for v := range q.C() {
		got = append(got, v)
	}
	if len(got) != 5 {
		t.Fatalf("drained %d items, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("item %d: got %d, want %d", i, v, i)
		}
	}
}

func TestConcurrentProducers(t *testing.T) {
	const producers = 4
	const perProducer = 250

	q := New[int]()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Send(p*perProducer + i); err != nil {
					t.Errorf("Send: %v", err)
					return
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		q.Close()
	}()

	seen := make(map[int]bool)
	for v := range q.C() {
		if seen[v] {
			t.Fatalf("item %d delivered twice", v)
		}
		seen[v] = true
	}
	if len(seen) != producers*perProducer {
		t.Fatalf("delivered %d items, want %d", len(seen), producers*perProducer)
	}
}
