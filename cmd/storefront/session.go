package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/aldoetobex/storefront-web/internal/config"
	"github.com/aldoetobex/storefront-web/internal/forms"
	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/internal/progress"
	"github.com/aldoetobex/storefront-web/internal/toast"
	"github.com/aldoetobex/storefront-web/internal/transport"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// errRejected is returned when the page host answered with field errors.
var errRejected = errors.New("the server rejected the form")

// session is one browser-like run of the runtime against the page host.
type session struct {
	cfg  *config.Config
	log  *logrus.Logger
	out  io.Writer
	tray *toast.Tray
	nav  *navigation.Navigator
}

func openSession(ctx context.Context, cfg *config.Config, out io.Writer) (*session, error) {
	log := cfg.NewLogger()
	tray := toast.NewTray()

	client, err := transport.New(transport.Config{
		BaseURL:          cfg.StorefrontURL,
		LoginPath:        cfg.LoginPath,
		SurfaceForbidden: cfg.SurfaceForbidden,
		Log:              log,
		Notifier:         tray,
	})
	if err != nil {
		return nil, err
	}

	nav := navigation.New(client, flash.NewBridge(tray), log)
	progress.Attach(nav.Lifecycle()).OnChange(func(loading bool) {
		log.WithField("loading", loading).Debug("page transition")
	})

	s := &session{cfg: cfg, log: log, out: out, tray: tray, nav: nav}
	first, err := nav.Start(ctx)
	if err != nil {
		return nil, err
	}
	report(out, tray, first)
	return s, nil
}

// signIn submits the login screen with the configured credentials.
func (s *session) signIn(ctx context.Context) error {
	if s.cfg.ClientEmail == "" || s.cfg.ClientPassword == "" {
		return fmt.Errorf("credentials required: set --email and --password")
	}
	if _, err := s.visit(ctx, "login", nil); err != nil {
		return err
	}
	f, err := forms.NewLogin(s.nav, s.routes())
	if err != nil {
		return err
	}
	f.Update(func(d *forms.LoginDraft) {
		d.Email = s.cfg.ClientEmail
		d.Password = s.cfg.ClientPassword
	})
	return s.submit(ctx, f.Submit)
}

func (s *session) routes() page.RouteConfig {
	if p := s.nav.Current(); p != nil {
		return p.Props.Routes()
	}
	return page.RouteConfig{}
}

// visit GETs a named route and returns the committed page.
func (s *session) visit(ctx context.Context, route string, params map[string]string) (*page.Page, error) {
	url, err := s.nav.URL(route, params)
	if err != nil {
		return nil, err
	}
	out, err := s.nav.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	report(s.out, s.tray, out)
	return out.Page, nil
}

// submit runs one form submit and prints what came back.
func (s *session) submit(ctx context.Context, fn func(context.Context) (navigation.Outcome, error)) error {
	out, err := fn(ctx)
	report(s.out, s.tray, out)
	if err != nil {
		return err
	}
	if out.Failed() {
		return errRejected
	}
	return nil
}
