package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestBlockSet(t *testing.T) {
	set := newBlockSet([]string{"images", " Fonts", "xhr"})
	tests := []struct {
		resType proto.NetworkResourceType
		want    bool
	}{
		{proto.NetworkResourceTypeImage, true},
		{proto.NetworkResourceTypeFont, true},
		{proto.NetworkResourceTypeMedia, false},
		{proto.NetworkResourceTypeStylesheet, false},
		{proto.NetworkResourceTypeXHR, true},
		{proto.NetworkResourceTypeDocument, false},
	}
	for _, tt := range tests {
		if got := set.blocks(tt.resType); got != tt.want {
			t.Errorf("blocks(%q): got %v, want %v", tt.resType, got, tt.want)
		}
	}
}

func TestBlockSet_Empty(t *testing.T) {
	if newBlockSet(nil).blocks(proto.NetworkResourceTypeImage) {
		t.Error("empty set should block nothing")
	}
}
