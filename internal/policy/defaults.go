package policy

// MatchAll is the source pattern that matches every request path.
const MatchAll = "/(.*)"

// DefaultConfig returns the site's built-in tables. Permanent redirects are
// cached by clients indefinitely: never repoint an existing source, add a new
// one instead.
func DefaultConfig() Config {
	return Config{
		Headers: []HeaderRule{
			{
				Source: MatchAll,
				Headers: []Header{
					{Name: "X-Frame-Options", Value: "DENY"},
					{Name: "X-Content-Type-Options", Value: "nosniff"},
					{Name: "Referrer-Policy", Value: "origin-when-cross-origin"},
				},
			},
		},
		Redirects: []RedirectRule{
			{
				Source:      "/android",
				Destination: "https://play.google.com/store/apps/details?id=com.tcd.conseil_orientation",
				Permanent:   true,
			},
			{
				Source:      "/ios",
				Destination: "https://apps.apple.com/app/conseil-orientation/id1234567890",
				Permanent:   true,
			},
			{
				Source:      "/apk",
				Destination: "/downloads/conseil-orientation.apk",
				Permanent:   true,
			},
		},
		Images: AssetPolicy{
			AllowedHosts: []string{"conseil-orientation.com", "cdn.conseil-orientation.com"},
			Formats:      []string{"image/webp", "image/avif"},
		},
	}
}

// Default compiles DefaultConfig. The built-in tables are covered by tests,
// so a failure here is a programming error.
func Default() *Policy {
	p, err := New(DefaultConfig())
	if err != nil {
		panic("policy: invalid default tables: " + err.Error())
	}
	return p
}
