package browser

// Probe answers per-element visibility questions against the live page,
// addressed by absolute XPath. Page summaries use it to annotate or filter
// elements parsed from the static page source.
type Probe struct {
	Session *Session
}

// IsVisible reports whether the element at xpath is visible, and whether it
// could be found at all. Parsed source and live DOM can disagree after
// scripts run, so absence is an answer, not an error.
func (p *Probe) IsVisible(xpath string) (visible, found bool) {
	s := p.Session
	if !s.Running() {
		return false, false
	}
	locator := s.page.Locator("xpath=" + xpath)
	count, err := locator.Count()
	if err != nil || count == 0 {
		return false, false
	}
	v, err := locator.First().IsVisible()
	if err != nil {
		return false, false
	}
	return v, true
}
