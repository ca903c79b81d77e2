package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceNames maps the config's plural names to CDP resource types.
// Unknown names are matched against the CDP type itself (e.g. "xhr").
var resourceNames = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockSet is the set of lower-cased CDP resource types a session refuses.
type blockSet map[string]bool

func newBlockSet(names []string) blockSet {
	set := make(blockSet, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if t, ok := resourceNames[n]; ok {
			n = strings.ToLower(string(t))
		}
		set[n] = true
	}
	return set
}

func (b blockSet) blocks(t proto.NetworkResourceType) bool {
	return b[strings.ToLower(string(t))]
}

// blockResources fails every request of page whose type is in names. The
// returned router is stopped by the session's Close.
func blockResources(page *rod.Page, names []string) (*rod.HijackRouter, error) {
	set := newBlockSet(names)
	router := page.HijackRequests()
	if err := router.Add("*", "", func(h *rod.Hijack) {
		if set.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	}); err != nil {
		return nil, err
	}
	go router.Run()
	return router, nil
}
