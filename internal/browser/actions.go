package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Navigate loads a URL, prefixing http:// when no scheme is given, and
// returns the URL actually reached after redirects.
func (s *Session) Navigate(url string) (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	s.Pace()
	if _, err := s.page.Goto(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	return s.page.URL(), nil
}

// Back navigates one step back in history.
func (s *Session) Back() error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	s.Pace()
	_, err := s.page.GoBack()
	return err
}

// Forward navigates one step forward in history.
func (s *Session) Forward() error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	s.Pace()
	_, err := s.page.GoForward()
	return err
}

// Refresh reloads the current page.
func (s *Session) Refresh() error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	s.Pace()
	_, err := s.page.Reload()
	return err
}

// CurrentURL returns the page's current URL.
func (s *Session) CurrentURL() (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

// Title returns the current page title.
func (s *Session) Title() (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	return s.page.Title()
}

// PageSource returns the full HTML of the current page.
func (s *Session) PageSource() (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	return s.page.Content()
}

// Click waits for the element to be visible and clicks it.
func (s *Session) Click(strategy, expression string) error {
	locator, err := s.WaitClickable(strategy, expression)
	if err != nil {
		return err
	}
	s.Pace()
	return locator.Click()
}

// TypeText waits for the element to be visible and types into it. With clear
// the field is emptied first; with pressEnter a final Enter keystroke is sent.
func (s *Session) TypeText(strategy, expression, text string, clear, pressEnter bool) error {
	locator, err := s.WaitClickable(strategy, expression)
	if err != nil {
		return err
	}
	s.Pace()
	if clear {
		if err := locator.Clear(); err != nil {
			return err
		}
	}
	if err := locator.Type(text); err != nil {
		return err
	}
	if pressEnter {
		s.Pace()
		return locator.Press("Enter")
	}
	return nil
}

// ClearText empties an input or textarea.
func (s *Session) ClearText(strategy, expression string) error {
	locator, err := s.WaitClickable(strategy, expression)
	if err != nil {
		return err
	}
	s.Pace()
	return locator.Clear()
}

// SubmitForm submits the form the element belongs to. Works for the form
// element itself and for any control inside one.
func (s *Session) SubmitForm(strategy, expression string) error {
	locator, err := s.WaitPresent(strategy, expression)
	if err != nil {
		return err
	}
	s.Pace()
	_, err = locator.Evaluate(`el => {
		const form = el.closest('form');
		if (!form) throw new Error('element is not inside a form');
		form.submit();
	}`, nil)
	return err
}

// ExecuteScript evaluates JavaScript in the page and returns the raw result.
// Callers decide how to render it.
func (s *Session) ExecuteScript(script string) (any, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	s.Pace()
	return s.page.Evaluate(script)
}

// ElementText returns the rendered text of the first matching element.
func (s *Session) ElementText(strategy, expression string) (string, error) {
	locator, err := s.WaitPresent(strategy, expression)
	if err != nil {
		return "", err
	}
	return locator.InnerText()
}

// ElementAttribute returns an attribute value of the first matching element.
// A missing attribute yields an empty string, not an error.
func (s *Session) ElementAttribute(strategy, expression, name string) (string, error) {
	locator, err := s.WaitPresent(strategy, expression)
	if err != nil {
		return "", err
	}
	return locator.GetAttribute(name)
}

// ElementHTML returns the outer or inner HTML of the first matching element.
func (s *Session) ElementHTML(strategy, expression string, outer bool) (string, error) {
	locator, err := s.WaitPresent(strategy, expression)
	if err != nil {
		return "", err
	}
	script := "el => el.innerHTML"
	if outer {
		script = "el => el.outerHTML"
	}
	result, err := locator.Evaluate(script, nil)
	if err != nil {
		return "", err
	}
	html, _ := result.(string)
	return html, nil
}

// AncestorChain returns the shallow outer HTML of every element from the
// document root down to the first match, root first. Callers nest the shells
// back into a single-branch tree that shows where the element sits.
func (s *Session) AncestorChain(strategy, expression string) ([]string, error) {
	locator, err := s.WaitPresent(strategy, expression)
	if err != nil {
		return nil, err
	}
	result, err := locator.Evaluate(`el => {
		const chain = [];
		for (let node = el; node && node.nodeType === Node.ELEMENT_NODE; node = node.parentElement) {
			chain.unshift(node.cloneNode(false).outerHTML);
		}
		return chain;
	}`, nil)
	if err != nil {
		return nil, err
	}
	raw, _ := result.([]any)
	shells := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			shells = append(shells, s)
		}
	}
	return shells, nil
}

// ElementInfo is one match from FindElements, enough to pick a follow-up
// locator without another round trip. Outer carries the raw outer HTML for
// callers that derive a text rendering from it.
type ElementInfo struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Tag   string `json:"tag"`
	ID    string `json:"id"`
	Class string `json:"class"`
	Outer string `json:"-"`
}

// FindElements waits for at least one match and describes the window of
// matches starting at skip, at most max entries. Index is the position
// within the window.
func (s *Session) FindElements(strategy, expression string, max, skip int) ([]ElementInfo, error) {
	locators, err := s.WaitAllPresent(strategy, expression)
	if err != nil {
		return nil, err
	}
	skip, end := window(len(locators), max, skip)
	infos := make([]ElementInfo, 0, end-skip)
	for i, loc := range locators[skip:end] {
		info := ElementInfo{Index: i}
		if tag, err := loc.Evaluate("el => el.tagName.toLowerCase()", nil); err == nil {
			info.Tag, _ = tag.(string)
		}
		if text, err := loc.InnerText(); err == nil {
			info.Text = strings.TrimSpace(text)
		}
		if id, err := loc.GetAttribute("id"); err == nil {
			info.ID = id
		}
		if class, err := loc.GetAttribute("class"); err == nil {
			info.Class = class
		}
		if outer, err := loc.Evaluate("el => el.outerHTML", nil); err == nil {
			info.Outer, _ = outer.(string)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// window clamps the [skip, skip+max) pagination window to total elements.
// A non-positive max yields an empty window.
func window(total, max, skip int) (start, end int) {
	if skip < 0 {
		skip = 0
	}
	if skip > total {
		skip = total
	}
	end = skip + max
	if end > total {
		end = total
	}
	if end < skip {
		end = skip
	}
	return skip, end
}

// CountElements returns how many elements match right now, without waiting.
func (s *Session) CountElements(strategy, expression string) (int, error) {
	if err := s.ensureStarted(); err != nil {
		return 0, err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return 0, err
	}
	return s.page.Locator(selector).Count()
}

// WaitForElement blocks until an element matching the strategy pair is
// attached, up to timeout. A non-positive timeout falls back to the session
// default.
func (s *Session) WaitForElement(strategy, expression string, timeout float64) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return err
	}
	return s.waitWithTimeout(selector, timeout)
}

// WaitForText blocks until the page text contains the given substring, up to
// timeout. A non-positive timeout falls back to the session default.
func (s *Session) WaitForText(text string, timeout float64) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	return s.waitWithTimeout(fmt.Sprintf("html:has-text(%q)", text), timeout)
}

func (s *Session) waitWithTimeout(selector string, timeout float64) error {
	ms := timeout * 1000
	if ms <= 0 {
		ms = float64(s.timeout.Milliseconds())
	}
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(ms),
	})
	if err != nil && isTimeout(err) {
		return fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return err
}

// Cookie is a browser cookie in wire-friendly form.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	URL      string  `json:"url,omitempty"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // "Strict", "Lax", "None"
}

// Cookies returns all cookies of the browser context.
func (s *Session) Cookies() ([]Cookie, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	pwCookies, err := s.page.Context().Cookies()
	if err != nil {
		return nil, fmt.Errorf("get cookies failed: %w", err)
	}
	cookies := make([]Cookie, len(pwCookies))
	for i, c := range pwCookies {
		sameSite := ""
		if c.SameSite != nil {
			sameSite = string(*c.SameSite)
		}
		cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: sameSite,
		}
	}
	return cookies, nil
}

// SetCookie adds a cookie to the browser context. Without a URL or a
// domain+path pair the cookie is scoped to the current page.
func (s *Session) SetCookie(cookie Cookie) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if cookie.Name == "" {
		return fmt.Errorf("cookie name is required")
	}
	if cookie.URL == "" && (cookie.Domain == "" || cookie.Path == "") {
		cookie.URL = s.page.URL()
	}

	var sameSite *playwright.SameSiteAttribute
	switch cookie.SameSite {
	case "Strict":
		sameSite = playwright.SameSiteAttributeStrict
	case "None":
		sameSite = playwright.SameSiteAttributeNone
	case "Lax":
		sameSite = playwright.SameSiteAttributeLax
	}

	pwCookie := playwright.OptionalCookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		SameSite: sameSite,
	}
	if cookie.Domain != "" {
		pwCookie.Domain = playwright.String(cookie.Domain)
	}
	if cookie.Path != "" {
		pwCookie.Path = playwright.String(cookie.Path)
	}
	if cookie.URL != "" {
		pwCookie.URL = playwright.String(cookie.URL)
	}
	if cookie.Expires > 0 {
		pwCookie.Expires = playwright.Float(cookie.Expires)
	}
	if cookie.HTTPOnly {
		pwCookie.HttpOnly = playwright.Bool(true)
	}
	if cookie.Secure {
		pwCookie.Secure = playwright.Bool(true)
	}

	if err := s.page.Context().AddCookies([]playwright.OptionalCookie{pwCookie}); err != nil {
		return fmt.Errorf("set cookie failed: %w", err)
	}
	return nil
}

// DeleteCookies removes every cookie from the browser context.
func (s *Session) DeleteCookies() error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if err := s.page.Context().ClearCookies(); err != nil {
		return fmt.Errorf("clear cookies failed: %w", err)
	}
	return nil
}
