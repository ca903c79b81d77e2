package waiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser/browsertest"
)

func TestAwait_ImmediateMarker(t *testing.T) {
	page := &browsertest.Page{Text: "Your WARD: 42"}
	if !Await(context.Background(), page, time.Second, 10*time.Millisecond) {
		t.Fatal("expected marker to be seen")
	}
	if page.TextCalls() != 1 {
		t.Fatalf("text calls: got %d, want 1", page.TextCalls())
	}
}

func TestAwait_MarkerAfterPolls(t *testing.T) {
	page := &browsertest.Page{TextFunc: func(call int) (string, error) {
		if call < 3 {
			return "Loading...", nil
		}
		return "Alderwoman: Jane Doe", nil
	}}
	if !Await(context.Background(), page, time.Second, 5*time.Millisecond) {
		t.Fatal("expected marker to be seen")
	}
	if page.TextCalls() != 4 {
		t.Fatalf("text calls: got %d, want 4", page.TextCalls())
	}
}

func TestAwait_Timeout(t *testing.T) {
	page := &browsertest.Page{Text: "Please enter an address"}
	start := time.Now()
	if Await(context.Background(), page, 40*time.Millisecond, 5*time.Millisecond) {
		t.Fatal("expected no marker")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("returned after %v, before the timeout", elapsed)
	}
}

func TestAwait_ReadErrorsAreNotFatal(t *testing.T) {
	page := &browsertest.Page{TextFunc: func(call int) (string, error) {
		if call == 0 {
			return "", errors.New("execution context was destroyed")
		}
		return "Ward 3", nil
	}}
	if !Await(context.Background(), page, time.Second, 5*time.Millisecond) {
		t.Fatal("a failed read must not end the wait")
	}
}

func TestAwait_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &browsertest.Page{Text: "nothing here"}
	if Await(ctx, page, time.Minute, time.Millisecond) {
		t.Fatal("expected false on cancelled context")
	}
}

func TestHasMarker(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Ward: 42", true},
		{"ALDERMAN John", true},
		{"alderwoman", true},
		{"Awards ceremony", true}, // substring match, as the form renders it
		{"No results", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasMarker(tt.text); got != tt.want {
			t.Errorf("HasMarker(%q): got %v, want %v", tt.text, got, tt.want)
		}
	}
}
