package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Strategies lists the supported element selection strategies, in the order
// they are reported to users of an invalid one.
var Strategies = []string{
	"id",
	"css selector",
	"xpath",
	"tag name",
	"class name",
	"link text",
	"partial link text",
	"name",
}

// ResolveSelector translates a (strategy, expression) pair into a driver
// selector. Unknown strategies return ErrInvalidStrategy.
func ResolveSelector(strategy, expression string) (string, error) {
	switch strategy {
	case "css selector":
		return expression, nil
	case "id":
		return fmt.Sprintf("[id=%q]", expression), nil
	case "name":
		return fmt.Sprintf("[name=%q]", expression), nil
	case "xpath":
		return "xpath=" + expression, nil
	case "tag name":
		return expression, nil
	case "class name":
		return "." + expression, nil
	case "link text":
		return fmt.Sprintf("a:text-is(%q)", expression), nil
	case "partial link text":
		return fmt.Sprintf("a:has-text(%q)", expression), nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrInvalidStrategy, strategy, Strategies)
	}
}

// ValidStrategy reports whether strategy is one of the supported set.
func ValidStrategy(strategy string) bool {
	_, err := ResolveSelector(strategy, "x")
	return err == nil
}

// waitFor blocks until the first match of selector reaches state, up to the
// session's default timeout. Wait failures surface as ErrTimeout so callers
// can tell a slow page from a bad selector.
func (s *Session) waitFor(selector string, state *playwright.WaitForSelectorState) (playwright.Locator, error) {
	locator := s.page.Locator(selector).First()
	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
		}
		return nil, err
	}
	return locator, nil
}

// WaitPresent waits until an element matching the strategy pair is attached
// to the DOM and returns it.
func (s *Session) WaitPresent(strategy, expression string) (playwright.Locator, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return nil, err
	}
	return s.waitFor(selector, playwright.WaitForSelectorStateAttached)
}

// WaitClickable waits until an element matching the strategy pair is visible,
// the readiness bar for clicks and keystrokes.
func (s *Session) WaitClickable(strategy, expression string) (playwright.Locator, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return nil, err
	}
	return s.waitFor(selector, playwright.WaitForSelectorStateVisible)
}

// WaitAllPresent waits for at least one match, then returns every element
// currently matching the strategy pair.
func (s *Session) WaitAllPresent(strategy, expression string) ([]playwright.Locator, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return nil, err
	}
	if _, err := s.waitFor(selector, playwright.WaitForSelectorStateAttached); err != nil {
		return nil, err
	}
	return s.page.Locator(selector).All()
}

// Exists checks immediately whether any element matches, without waiting.
// Absence is ErrNotFound, distinct from the wait timeouts.
func (s *Session) Exists(strategy, expression string) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	selector, err := ResolveSelector(strategy, expression)
	if err != nil {
		return err
	}
	count, err := s.page.Locator(selector).Count()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
