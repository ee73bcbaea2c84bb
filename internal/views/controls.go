package views

import (
	"github.com/park285/chess-movetable/internal/msgcat"
	"github.com/park285/chess-movetable/internal/vdom"
)

// UploadInputID is the id of the file picker the client script listens on.
const UploadInputID = "moveFile"

// LoadState is the lifecycle of the current dataset.
type LoadState int

const (
	StateLoading LoadState = iota
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is what the banner shows.
type Status struct {
	State LoadState
	Err   string
}

// StatusBanner renders the loading or failed state. It returns nil when the
// dataset is ready.
func StatusBanner(msgs *msgcat.Catalog, st Status) *vdom.Node {
	if msgs == nil {
		msgs = msgcat.Default()
	}
	switch st.State {
	case StateLoading:
		return vdom.H("p.status", vdom.Key("status"), vdom.Attrs{"aria-busy": "true"},
			msgs.Text("status.loading", nil))
	case StateFailed:
		return vdom.H("p.status.failed", vdom.Key("status"), vdom.Attrs{"role": "alert"},
			msgs.Text("status.failed", struct{ Error string }{st.Err}))
	default:
		return nil
	}
}

// UploadControl is a labelled picker accepting one .json file.
func UploadControl(msgs *msgcat.Catalog) *vdom.Node {
	if msgs == nil {
		msgs = msgcat.Default()
	}
	label := msgs.Text("upload.label", nil)
	return vdom.H("div.upload", vdom.Key("upload"),
		vdom.H("label", vdom.Attrs{"for": UploadInputID}, label),
		vdom.H("input#"+UploadInputID, vdom.Attrs{
			"type":       "file",
			"accept":     ".json",
			"aria-label": label,
		}),
	)
}
