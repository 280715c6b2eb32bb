// Package pages implements the static-site deployment target and the root
// redirect page published in front of generated documentation.
package pages

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRedirectTarget is the documentation entry page the published
// site's root resolves to.
const DefaultRedirectTarget = "./rahjong/index.html"

// RedirectPage returns the root index.html that redirects the browser to
// target immediately. The output is a fixed byte sequence: consumers rely
// on its exact content.
func RedirectPage(target string) []byte {
	return []byte(fmt.Sprintf(
		`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="0;URL=%s" /></head><body></body></html>`,
		target,
	))
}

// WriteRedirect writes the redirect page as index.html under dir.
func WriteRedirect(dir, target string) error {
	if target == "" {
		target = DefaultRedirectTarget
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "index.html"), RedirectPage(target), 0644)
}
