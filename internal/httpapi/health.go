package httpapi

import "net/http"

func (d *Dependencies) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if d.Ready != nil && !d.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "serving"})
}
