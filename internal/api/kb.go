package api

import "net/http"

// kbPage documents the plugin for operators registering it on the hub.
// Served as-is; the content only changes with the code, so there is no
// template involved.
const kbPage = `<!doctype html>
<html>
<head><meta charset="utf-8"/><title>Singapore Bus Timings</title></head>
<body>
  <div class="view view--full">
    <div class="layout"><div class="columns"><div class="column">
    <div class="markdown">
      <h1>TRMNL — Singapore Bus Timings Plugin</h1>
      <p>This plugin shows upcoming arrivals for <strong>three bus stops</strong>. Set your stop codes in the Management UI.</p>
      <h3>Configuration</h3>
      <ul>
        <li><code>BUSBOARD_LTA_ACCOUNT_KEY</code> — required. Get one from LTA DataMall.</li>
        <li><code>BUSBOARD_TRMNL_CLIENT_ID</code>, <code>BUSBOARD_TRMNL_CLIENT_SECRET</code> — required for OAuth.</li>
        <li><code>BUSBOARD_STOPS_DEFAULT_A</code>, <code>BUSBOARD_STOPS_DEFAULT_B</code>, <code>BUSBOARD_STOPS_DEFAULT_C</code> — optional defaults.</li>
      </ul>
      <h3>TRMNL URLs</h3>
      <ul>
        <li>Installation URL: <code>/install</code></li>
        <li>Installation Success Webhook URL: <code>/installed</code></li>
        <li>Plugin Management URL: <code>/manage</code></li>
        <li>Plugin Markup URL: <code>/markup</code></li>
        <li>Uninstallation Webhook URL: <code>/uninstalled</code></li>
        <li>Knowledge Base URL: <code>/kb</code></li>
      </ul>
    </div></div></div></div>
  </div>
</body>
</html>
`

// handleKB serves the static knowledge-base page.
func (s *Server) handleKB(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck // Best-effort write to response
	w.Write([]byte(kbPage))
}
