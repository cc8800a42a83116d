// Package route decides how a source URL is acquired.
//
// Hosts that belong to a known video platform go through the platform
// extractor; everything else is treated as a direct media link.
//
//	sel := route.DefaultSelector()
//	sel.Select("https://youtu.be/dQw4w9WgXcQ")      // route.Platform
//	sel.Select("https://cdn.example.com/clip.mp4") // route.Direct
package route

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Strategy is the acquisition path chosen for a URL.
type Strategy int

const (
	// Direct fetches the URL as a media file over HTTP.
	Direct Strategy = iota

	// Platform hands the URL to the platform extractor.
	Platform
)

// String returns the string representation of Strategy.
func (s Strategy) String() string {
	if s == Platform {
		return "platform"
	}
	return "direct"
}

// DefaultPlatformDomains is the built-in platform host list.
var DefaultPlatformDomains = []string{
	"youtube.com",
	"youtu.be",
	"youtube-nocookie.com",
	"vimeo.com",
	"dailymotion.com",
	"dai.ly",
	"twitch.tv",
	"tiktok.com",
	"instagram.com",
	"facebook.com",
	"fb.watch",
	"twitter.com",
	"x.com",
	"soundcloud.com",
	"bandcamp.com",
	"reddit.com",
	"bilibili.com",
}

// Selector maps URLs to a Strategy by host. It is safe for concurrent use.
type Selector struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

// NewSelector creates a Selector that knows only the given domains.
func NewSelector(domains ...string) *Selector {
	s := &Selector{domains: make(map[string]struct{}, len(domains))}
	s.Add(domains...)
	return s
}

// DefaultSelector creates a Selector preloaded with DefaultPlatformDomains.
func DefaultSelector() *Selector {
	return NewSelector(DefaultPlatformDomains...)
}

// Add registers extra platform domains. Blank entries are ignored.
func (s *Selector) Add(domains ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range domains {
		d = normalizeHost(d)
		if d == "" {
			continue
		}
		s.domains[d] = struct{}{}
	}
}

// Domains returns the registered domains in sorted order.
func (s *Selector) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Normalize trims rawURL and adds an https scheme to links typed without one,
// such as "youtube.com/watch?v=x". Anything else is returned trimmed.
func Normalize(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" || strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return raw
	}
	if u, err := url.Parse("https://" + raw); err == nil && strings.Contains(u.Hostname(), ".") {
		return u.String()
	}
	return raw
}

// Select returns Platform when the URL host is a registered domain or one of
// its subdomains, and Direct otherwise. Unparsable URLs are Direct.
func (s *Selector) Select(rawURL string) Strategy {
	u, err := url.Parse(Normalize(rawURL))
	if err != nil {
		return Direct
	}
	host := normalizeHost(u.Hostname())
	if host == "" {
		return Direct
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for {
		if _, ok := s.domains[host]; ok {
			return Platform
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return Direct
		}
		host = host[i+1:]
	}
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	// Accept entries written as URLs.
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			h = u.Hostname()
		}
	}
	return h
}
