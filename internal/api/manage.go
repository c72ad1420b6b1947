package api

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/wychoong/busboard/internal/device"
)

// manageTemplate is the operator-facing settings form. It is served
// both standalone and inside the hub's management iframe, so it stays
// dependency-free and unstyled beyond a minimal inline sheet.
var manageTemplate = template.Must(template.New("manage").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Bus Stops</title>
  <style>
    body { font-family: sans-serif; max-width: 28rem; margin: 2rem auto; padding: 0 1rem; }
    label { display: block; margin: 0.75rem 0; }
    input { width: 100%; padding: 0.4rem; box-sizing: border-box; }
    button { margin-top: 1rem; padding: 0.5rem 1.5rem; }
  </style>
</head>
<body>
  <h1>Bus Stops</h1>
  <p>Enter up to three bus stop codes. Leave a field blank to fall back to the default stop.</p>
  <form method="post" action="/manage">
    <input type="hidden" name="uuid" value="{{.UUID}}"/>
    <label>Bus Stop A <input name="stop_a" value="{{.StopA}}" placeholder="e.g., {{.DefaultA}}"/></label>
    <label>Bus Stop B <input name="stop_b" value="{{.StopB}}" placeholder="e.g., {{.DefaultB}}"/></label>
    <label>Bus Stop C <input name="stop_c" value="{{.StopC}}" placeholder="e.g., {{.DefaultC}}"/></label>
    <label>Return to TRMNL URL (optional) <input name="back_to_trmnl" placeholder="https://usetrmnl.com/plugin_settings/1234/edit"/></label>
    <button type="submit">Save</button>
  </form>
</body>
</html>
`))

// managePage is the data passed to manageTemplate.
type managePage struct {
	UUID     string
	StopA    string
	StopB    string
	StopC    string
	DefaultA string
	DefaultB string
	DefaultC string
}

// handleManage serves the settings form and applies submitted changes.
//
// GET renders the form with the device's current stop codes. POST
// applies the submitted fields and either redirects back to the hub
// when a return URL is given or re-renders the form. Visiting the form
// creates the device record if it does not exist yet, so management
// works even when the install webhook was missed.
func (s *Server) handleManage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			writeBadRequest(w, "invalid form body")
			return
		}
	}

	id := r.URL.Query().Get("uuid")
	if id == "" {
		id = r.PostFormValue("uuid")
	}
	if id == "" {
		writeBadRequest(w, "missing uuid")
		return
	}

	if r.Method == http.MethodPost {
		update := stopUpdateFromForm(r)
		if !update.IsEmpty() {
			if _, err := s.store.GetOrCreate(r.Context(), id); err != nil {
				s.logger.Error("failed to load device for management", "user_uuid", id, "error", err)
				writeInternalError(w, "failed to load device")
				return
			}
			if err := s.store.UpdateStops(r.Context(), id, update); err != nil {
				s.logger.Error("failed to save stops", "user_uuid", id, "error", err)
				writeInternalError(w, "failed to save settings")
				return
			}
			s.logger.Info("stops updated", "user_uuid", id)
		}

		if back := r.PostFormValue("back_to_trmnl"); back != "" {
			http.Redirect(w, r, back, http.StatusFound)
			return
		}
	}

	dev, err := s.store.GetOrCreate(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load device for management", "user_uuid", id, "error", err)
		writeInternalError(w, "failed to load device")
		return
	}

	stops := dev.ResolveStops(s.defaults)
	page := managePage{
		UUID:     id,
		StopA:    stops[0],
		StopB:    stops[1],
		StopC:    stops[2],
		DefaultA: s.defaults.A,
		DefaultB: s.defaults.B,
		DefaultC: s.defaults.C,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := manageTemplate.Execute(w, page); err != nil {
		s.logger.Error("failed to render management form", "error", err)
	}
}

// stopUpdateFromForm builds a partial stop update from the submitted
// form. Only fields present in the form are touched; a present but
// blank field clears the stored stop so the default applies again.
func stopUpdateFromForm(r *http.Request) device.StopUpdate {
	var update device.StopUpdate
	if v, ok := formValue(r, "stop_a"); ok {
		update.StopA = &v
	}
	if v, ok := formValue(r, "stop_b"); ok {
		update.StopB = &v
	}
	if v, ok := formValue(r, "stop_c"); ok {
		update.StopC = &v
	}
	return update
}

// formValue reports whether a form key was submitted at all,
// distinguishing an absent field from a blank one. The value is
// trimmed; stop codes never carry meaningful whitespace.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}
