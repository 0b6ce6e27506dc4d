package archon

import (
	"errors"
	"testing"
)

type mNonSend struct{ N int }
type mNonSync struct{ N int }

func TestNonSendWriteOffMainIsRejected(t *testing.T) {
	w := NewWorld()
	c, err := RegisterComponent[mNonSend](w, NonSend[mNonSend]())
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	w.Spawn(Bundle{c.Value(mNonSend{N: 1})})

	errs := make(chan error, 1)
	go func() {
		cur := w.Query(c.Write())
		defer cur.Close()
		cur.Next()
		errs <- cur.Err()
	}()
	err = <-errs

	var notMain NotMainThreadError
	if !errors.As(err, &notMain) {
		t.Fatalf("Query().Err() = %v, want a NotMainThreadError", err)
	}
}

func TestNonSendReadOffMainIsPermitted(t *testing.T) {
	w := NewWorld()
	c, err := RegisterComponent[mNonSend](w, NonSend[mNonSend]())
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	w.Spawn(Bundle{c.Value(mNonSend{N: 7})})

	results := make(chan int, 1)
	go func() {
		cur := w.Query(c.Read())
		defer cur.Close()
		n := -1
		if cur.Next() {
			n = c.Read().Get(cur).N
		}
		results <- n
	}()
	if got := <-results; got != 7 {
		t.Fatalf("off-main read of a NonSend component = %d, want 7 (reads should be unrestricted)", got)
	}
}

func TestNonSyncReadOffMainIsRejected(t *testing.T) {
	w := NewWorld()
	c, err := RegisterComponent[mNonSync](w, NonSync[mNonSync]())
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	w.Spawn(Bundle{c.Value(mNonSync{N: 1})})

	errs := make(chan error, 1)
	go func() {
		cur := w.Query(c.Read())
		defer cur.Close()
		cur.Next()
		errs <- cur.Err()
	}()
	err = <-errs

	var notMain NotMainThreadError
	if !errors.As(err, &notMain) {
		t.Fatalf("Query().Err() = %v, want a NotMainThreadError", err)
	}
}

func TestNonSyncWriteOffMainIsPermitted(t *testing.T) {
	w := NewWorld()
	c, err := RegisterComponent[mNonSync](w, NonSync[mNonSync]())
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	id := w.Spawn(Bundle{c.Value(mNonSync{N: 1})})

	done := make(chan bool, 1)
	go func() {
		cur := w.Query(c.Write())
		defer cur.Close()
		matched := cur.Next()
		if matched {
			c.Write().Get(cur).N = 2
		}
		done <- matched
	}()
	if matched := <-done; !matched {
		t.Fatalf("off-main write of a NonSync component should be permitted")
	}

	w.BumpEpoch()
	cur := w.Query(c.Read())
	defer cur.Close()
	for cur.Next() {
		if cur.Entity() == id && c.Read().Get(cur).N != 2 {
			t.Fatalf("write from the background goroutine should be visible, got N = %d", c.Read().Get(cur).N)
		}
	}
}
