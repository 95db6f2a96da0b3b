package tui

import (
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme         themes.Theme
	InitialTicker string
	InitialDepth  model.Depth
	Width         int
	Height        int
	AltScreen     bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		InitialDepth: model.DepthQuick,
		Width:        80,
		Height:       24,
		AltScreen:    true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithInitialAnalysis starts an analysis of ticker as soon as the UI opens.
func WithInitialAnalysis(ticker string, depth model.Depth) Option {
	return func(c *Config) {
		c.InitialTicker = ticker
		c.InitialDepth = depth
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
