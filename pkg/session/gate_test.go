package session

import "testing"

func policyGate() *Gate {
	return NewGate(
		[]string{"/login", "/registro"},
		[]string{"/dashboard", "/historial", "/analisis-personalizado"},
		"/login",
		"/dashboard",
	)
}

func TestGate_Decide(t *testing.T) {
	g := policyGate()

	cases := []struct {
		name          string
		path          string
		authenticated bool
		allow         bool
		redirect      string
	}{
		{"protected without session", "/dashboard", false, false, "/login?redirect=%2Fdashboard"},
		{"protected subpath without session", "/historial/2026", false, false, "/login?redirect=%2Fhistorial%2F2026"},
		{"protected with session", "/dashboard", true, true, ""},
		{"login without session", "/login", false, true, ""},
		{"login with session", "/login", true, false, "/dashboard"},
		{"register with session", "/registro", true, false, "/dashboard"},
		{"public page either way", "/", false, true, ""},
		{"public page with session", "/", true, true, ""},
		{"prefix is boundary aware", "/dashboard-publico", false, true, ""},
		{"auth-only prefix is boundary aware", "/registro-civil", true, true, ""},
	}

	for _, tc := range cases {
		d := g.Decide(tc.path, tc.authenticated)
		if d.Allow != tc.allow {
			t.Fatalf("%s: allow=%v, want %v", tc.name, d.Allow, tc.allow)
		}
		if d.RedirectTo != tc.redirect {
			t.Fatalf("%s: redirect=%q, want %q", tc.name, d.RedirectTo, tc.redirect)
		}
	}
}
