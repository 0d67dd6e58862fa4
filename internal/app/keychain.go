package app

import (
	"log/slog"

	"github.com/zx06/xkeychain/internal/config"
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/filestore"
	"github.com/zx06/xkeychain/internal/keychain/secretservice"
	"github.com/zx06/xkeychain/internal/platform"
)

func platformOptions(r config.Resolved, logger *slog.Logger) platform.Options {
	return platform.Options{
		File:          filestore.Options{Dir: r.FileDir, AppName: r.AppName},
		SecretService: secretservice.Options{Collection: r.Collection},
		Logger:        logger,
	}
}

// OpenKeychain opens the backend selected by r.
func OpenKeychain(r config.Resolved, logger *slog.Logger) (*keychain.Keychain, *errors.XError) {
	b, err := platform.Open(r.Backend, platformOptions(r, logger))
	if err != nil {
		return nil, errors.AsOrWrap(err)
	}
	logger.Debug("backend selected", "requested", r.Backend, "backend", b.Name(), "strategy", b.Strategy().String())
	return keychain.New(b, keychain.WithLogger(logger)), nil
}

type BackendInfo struct {
	Name     string `json:"name" yaml:"name"`
	Strategy string `json:"strategy" yaml:"strategy"`
	Default  bool   `json:"default" yaml:"default"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// BackendList renders as a table in table and csv output.
type BackendList []BackendInfo

func (BackendList) Header() []string { return []string{"name", "strategy", "default", "selected"} }

func (l BackendList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	mark := func(b bool) string {
		if b {
			return "*"
		}
		return ""
	}
	for _, b := range l {
		rows = append(rows, []string{b.Name, b.Strategy, mark(b.Default), mark(b.Selected)})
	}
	return rows
}

// Backends lists the concrete backends, marking this host's default and
// the one r selects.
func Backends(r config.Resolved, logger *slog.Logger) (BackendList, *errors.XError) {
	opts := platformOptions(r, logger)
	selected, err := platform.Open(r.Backend, opts)
	if err != nil {
		return nil, errors.AsOrWrap(err)
	}
	def := platform.Default(opts)

	var out BackendList
	for _, name := range platform.Names() {
		if name == platform.Auto {
			continue
		}
		b, err := platform.Open(name, opts)
		if err != nil {
			return nil, errors.AsOrWrap(err)
		}
		out = append(out, BackendInfo{
			Name:     b.Name(),
			Strategy: b.Strategy().String(),
			Default:  b.Name() == def.Name(),
			Selected: b.Name() == selected.Name(),
		})
	}
	return out, nil
}
