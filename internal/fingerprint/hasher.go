// Package fingerprint computes the content digests used for change detection.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// Algorithm names a digest function.
type Algorithm string

// Supported algorithms. MD5 is the default so that state files written by
// earlier versions keep comparing equal.
const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// Mode selects how a body is normalized before hashing.
type Mode string

const (
	// ModeRaw hashes the body bytes unchanged.
	ModeRaw Mode = "raw"
	// ModeText hashes the visible text of an HTML document.
	ModeText Mode = "text"
	// ModeSelector hashes the visible text of the nodes matching a CSS selector.
	ModeSelector Mode = "selector"
)

// ErrNoMatch is returned in selector mode when nothing on the page matches.
var ErrNoMatch = errors.New("selector matched no elements")

// Options configures a Hasher.
type Options struct {
	Algorithm Algorithm
	Mode      Mode
	Selector  string
}

// Hasher turns page bodies into hex fingerprints.
type Hasher struct {
	newHash  func() hash.Hash
	algo     Algorithm
	mode     Mode
	selector string
}

// NewHasher validates opts and creates a Hasher. Empty values fall back to
// md5 and raw mode.
func NewHasher(opts Options) (*Hasher, error) {
	h := &Hasher{
		algo:     Algorithm(strings.ToLower(string(opts.Algorithm))),
		mode:     Mode(strings.ToLower(string(opts.Mode))),
		selector: strings.TrimSpace(opts.Selector),
	}
	if h.algo == "" {
		h.algo = MD5
	}
	if h.mode == "" {
		h.mode = ModeRaw
	}

	switch h.algo {
	case MD5:
		h.newHash = md5.New
	case SHA256:
		h.newHash = sha256.New
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", opts.Algorithm)
	}

	switch h.mode {
	case ModeRaw, ModeText:
	case ModeSelector:
		if h.selector == "" {
			return nil, errors.New("selector mode requires a selector")
		}
	default:
		return nil, fmt.Errorf("unknown normalization mode %q", opts.Mode)
	}

	return h, nil
}

// Algorithm reports the digest in use.
func (h *Hasher) Algorithm() Algorithm { return h.algo }

// Mode reports the normalization in use.
func (h *Hasher) Mode() Mode { return h.mode }

// Sum normalizes body according to the hasher's mode and returns the
// lowercase hex digest.
func (h *Hasher) Sum(body []byte) (string, error) {
	content := body
	switch h.mode {
	case ModeText:
		text, err := VisibleText(body, "")
		if err != nil {
			return "", err
		}
		content = []byte(text)
	case ModeSelector:
		text, err := VisibleText(body, h.selector)
		if err != nil {
			return "", err
		}
		content = []byte(text)
	}
	return h.digest(content), nil
}

func (h *Hasher) digest(content []byte) string {
	d := h.newHash()
	d.Write(content)
	return hex.EncodeToString(d.Sum(nil))
}
