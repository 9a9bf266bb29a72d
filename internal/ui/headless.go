package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// HeadlessManager decides whether prompts and in-place redraws are allowed.
// Without an override, stackgen is headless when stdin is not a terminal or
// when CI is set in the environment.
type HeadlessManager struct {
	forced   *bool
	terminal func() bool
	lookup   func(string) (string, bool)
}

func NewHeadlessManager() *HeadlessManager {
	return &HeadlessManager{
		terminal: func() bool {
			fd := os.Stdin.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		lookup: os.LookupEnv,
	}
}

func (h *HeadlessManager) IsHeadless() bool {
	if h.forced != nil {
		return *h.forced
	}
	if ci, ok := h.lookup("CI"); ok && ci != "" && ci != "false" && ci != "0" {
		return true
	}
	return !h.terminal()
}

// ForceHeadless pins the result of IsHeadless until ClearForce is called.
func (h *HeadlessManager) ForceHeadless(force bool) { h.forced = &force }

func (h *HeadlessManager) ClearForce() { h.forced = nil }
