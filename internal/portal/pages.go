package portal

import (
	"bytes"
	"html/template"

	"git.home.luguber.info/inful/onboard/internal/wifi"
)

// FormRenderer produces the setup page for the given scan results.
type FormRenderer func(networks []wifi.Network) string

var formTemplate = template.Must(template.New("form").Parse(`<!doctype html>
<html><head>
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Device Setup</title>
</head><body>
<h1>Wi-Fi Setup</h1>
<form method="POST" action="/save">
<label>Wi-Fi SSID</label>
<select name="ssid">
<option value="">Select from scan</option>
{{- range .}}
<option value="{{.SSID}}">{{.SSID}} ({{.RSSI}} dBm)</option>
{{- end}}
</select>
<label>or enter SSID manually</label>
<input name="ssid_manual" placeholder="MyWiFi" />
<label>Wi-Fi Password</label>
<input name="pass" type="password" placeholder="Password" />
<label>API Endpoint URL</label>
<input name="api" type="text" placeholder="https://example.com/heartbeat" />
<button type="submit">Save &amp; Connect</button>
</form>
<p>Tip: Hold the device button for 30 seconds to factory reset.</p>
</body></html>
`))

var successTemplate = template.Must(template.New("success").Parse(
	`<html><body><h2>Connected!</h2><p>IP: {{.}}</p><p>Rebooting…</p></body></html>`))

const failurePage = `<html><body><h2>Failed to connect.</h2><p>Please go back and check SSID/password.</p></body></html>`

// DefaultForm renders the built-in setup form.
func DefaultForm(networks []wifi.Network) string {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, networks); err != nil {
		return failurePage
	}
	return buf.String()
}

func successPage(ip string) string {
	var buf bytes.Buffer
	_ = successTemplate.Execute(&buf, ip)
	return buf.String()
}
