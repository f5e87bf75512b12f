// Command storefront drives the storefront pages from a terminal: it runs the
// same transport, navigation, flash and form runtime a browser session uses
// and prints the resulting notifications and field errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aldoetobex/storefront-web/internal/config"
	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/internal/toast"
	"github.com/aldoetobex/storefront-web/pkg/flash"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd(&cfg).ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Drive the storefront pages from the command line",
		Long: `storefront signs in to a running page host and uses its screens:
category and customer administration, password reset, profile and checkout.

Credentials come from --email/--password or STOREFRONT_EMAIL/STOREFRONT_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.StorefrontURL, "url", cfg.StorefrontURL, "page host base URL")
	root.PersistentFlags().StringVar(&cfg.ClientEmail, "email", cfg.ClientEmail, "account email")
	root.PersistentFlags().StringVar(&cfg.ClientPassword, "password", cfg.ClientPassword, "account password")
	root.PersistentFlags().BoolVar(&cfg.SurfaceForbidden, "surface-forbidden", cfg.SurfaceForbidden, "show a notification on 403 responses")

	root.AddCommand(
		loginCmd(cfg),
		categoriesCmd(cfg),
		customersCmd(cfg),
		forgotPasswordCmd(cfg),
		profileCmd(cfg),
		checkoutCmd(cfg),
	)
	return root
}

/* ================================ Output ================================= */

// report prints the toasts raised by the last visit, then any field errors
// in field order.
func report(w io.Writer, tray *toast.Tray, out navigation.Outcome) {
	for _, t := range tray.Drain() {
		switch {
		case t.Variant == flash.VariantDestructive:
			fmt.Fprintf(w, "\033[31m✗\033[0m %s: %s\n", t.Title, t.Body)
		case t.Kind == flash.KindWarning:
			fmt.Fprintf(w, "\033[33m⚠\033[0m %s: %s\n", t.Title, t.Body)
		default:
			fmt.Fprintf(w, "\033[32m✓\033[0m %s: %s\n", t.Title, t.Body)
		}
	}

	fields := make([]string, 0, len(out.Errors))
	for f := range out.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, out.Errors[f])
	}
}
