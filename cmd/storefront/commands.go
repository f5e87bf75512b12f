package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/a-h/templ"
	"github.com/spf13/cobra"

	"github.com/aldoetobex/storefront-web/internal/config"
	"github.com/aldoetobex/storefront-web/internal/forms"
	"github.com/aldoetobex/storefront-web/internal/widgets"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// signedIn opens a session and logs in before running fn.
func signedIn(cfg *config.Config, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := s.signIn(ctx); err != nil {
			return err
		}
		return fn(ctx, s, args)
	}
}

func loginCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the credentials and show the landing page",
		Args:  cobra.NoArgs,
		RunE: signedIn(cfg, func(_ context.Context, s *session, _ []string) error {
			p := s.nav.Current()
			u := p.Props.Auth().User
			if u == nil {
				return fmt.Errorf("still signed out after login")
			}
			fmt.Fprintf(s.out, "Signed in as %s (%s), landed on %s\n", u.Name, widgets.RoleTreatment(u.Role).Label, p.URL)
			return nil
		}),
	}
}

/* ============================== Categories ============================== */

func categoriesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "categories", Short: "Manage categories"}
	cmd.AddCommand(categoriesListCmd(cfg), categoryCreateCmd(cfg), categoryEditCmd(cfg))
	return cmd
}

func categoriesListCmd(cfg *config.Config) *cobra.Command {
	var pageNo int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: signedIn(cfg, func(ctx context.Context, s *session, _ []string) error {
			url, err := s.nav.URL("admin.categories.index", nil)
			if err != nil {
				return err
			}
			out, err := s.nav.Get(ctx, fmt.Sprintf("%s?page=%d", url, pageNo))
			if err != nil {
				return err
			}
			report(s.out, s.tray, out)

			var list page.Paginated[page.Category]
			if _, err := out.Page.Props.Decode("categories", &list); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSLUG\tPARENT\tACTIVE")
			for _, c := range list.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", c.ID, c.Name, c.Slug, c.ParentName, c.IsActive)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "page %d of %d (%d total)\n", list.Page, list.Pages, list.Total)
			return nil
		}),
	}
	cmd.Flags().IntVar(&pageNo, "page", 1, "page number")
	return cmd
}

type categoryFlags struct {
	name, slug, description, parent string
	active                          bool
}

func (cf *categoryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cf.name, "name", "", "category name")
	cmd.Flags().StringVar(&cf.slug, "slug", "", "URL slug (derived from the name when empty)")
	cmd.Flags().StringVar(&cf.description, "description", "", "description")
	cmd.Flags().StringVar(&cf.parent, "parent", forms.NoParent, `parent category ID, or "none"`)
	cmd.Flags().BoolVar(&cf.active, "active", true, "whether the category is visible")
}

// apply copies the flags the user set onto the form.
func (cf *categoryFlags) apply(cmd *cobra.Command, f *forms.CategoryForm) error {
	fl := cmd.Flags()
	if fl.Changed("name") {
		f.Set(func(d *forms.CategoryDraft) { d.Name = cf.name }, "name")
	}
	if fl.Changed("slug") {
		f.Set(func(d *forms.CategoryDraft) { d.Slug = cf.slug }, "slug")
	}
	if fl.Changed("description") {
		f.Set(func(d *forms.CategoryDraft) { d.Description = cf.description }, "description")
	}
	if fl.Changed("active") {
		f.Set(func(d *forms.CategoryDraft) { d.IsActive = cf.active }, "is_active")
	}
	if fl.Changed("parent") {
		return f.SetParentSelect(cf.parent)
	}
	return nil
}

func categoryCreateCmd(cfg *config.Config) *cobra.Command {
	var cf categoryFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = signedIn(cfg, func(ctx context.Context, s *session, _ []string) error {
		p, err := s.visit(ctx, "admin.categories.create", nil)
		if err != nil {
			return err
		}
		f, err := forms.CategoryFormFor(s.nav, p)
		if err != nil {
			return err
		}
		if err := cf.apply(cmd, f); err != nil {
			return err
		}
		return s.submit(ctx, f.Submit)
	})
	cf.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func categoryEditCmd(cfg *config.Config) *cobra.Command {
	var cf categoryFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a category; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = signedIn(cfg, func(ctx context.Context, s *session, args []string) error {
		p, err := s.visit(ctx, "admin.categories.edit", map[string]string{"id": args[0]})
		if err != nil {
			return err
		}
		f, err := forms.CategoryFormFor(s.nav, p)
		if err != nil {
			return err
		}
		if err := cf.apply(cmd, f); err != nil {
			return err
		}
		return s.submit(ctx, f.Submit)
	})
	cf.bind(cmd)
	return cmd
}

/* =============================== Customers ============================== */

func customersCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "customers", Short: "Manage customer accounts"}
	cmd.AddCommand(customerEditCmd(cfg))
	return cmd
}

func customerEditCmd(cfg *config.Config) *cobra.Command {
	var (
		name, email, phone, role, vendorStatus string
		active                                 bool
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit an account; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = signedIn(cfg, func(ctx context.Context, s *session, args []string) error {
		p, err := s.visit(ctx, "admin.customers.edit", map[string]string{"id": args[0]})
		if err != nil {
			return err
		}
		f, err := forms.CustomerFormFor(s.nav, p)
		if err != nil {
			return err
		}

		fl := cmd.Flags()
		if fl.Changed("name") {
			f.Set(func(d *forms.CustomerDraft) { d.Name = name }, "name")
		}
		if fl.Changed("email-address") {
			f.Set(func(d *forms.CustomerDraft) { d.Email = email }, "email")
		}
		if fl.Changed("phone") {
			f.Set(func(d *forms.CustomerDraft) { d.Phone = phone }, "phone")
		}
		if fl.Changed("active") {
			f.Set(func(d *forms.CustomerDraft) { d.IsActive = active }, "is_active")
		}
		if fl.Changed("role") {
			f.SetRole(models.Role(role))
		}
		if fl.Changed("vendor-status") {
			f.SetVendorStatus(vendorStatus)
		}
		return s.submit(ctx, f.Submit)
	})
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email-address", "", "account email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&role, "role", "", "customer, vendor or admin")
	cmd.Flags().StringVar(&vendorStatus, "vendor-status", "", `pending, approved, suspended, rejected or "none"`)
	cmd.Flags().BoolVar(&active, "active", true, "whether the account can sign in")
	return cmd
}

/* ============================ Password reset ============================ */

func forgotPasswordCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := s.visit(ctx, "password.request", nil); err != nil {
				return err
			}
			f, err := forms.NewForgotPassword(s.nav, s.routes())
			if err != nil {
				return err
			}
			f.Update(func(d *forms.ForgotPasswordDraft) { d.Email = args[0] })

			err = s.submit(ctx, f.Submit)
			if msg := f.FormError(); msg != "" {
				fmt.Fprintln(s.out, msg)
			}
			return err
		},
	}
}

/* ================================ Profile =============================== */

func profileCmd(cfg *config.Config) *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = signedIn(cfg, func(ctx context.Context, s *session, _ []string) error {
		p, err := s.visit(ctx, "profile.show", nil)
		if err != nil {
			return err
		}
		var (
			u           page.User
			memberSince string
			banner      *page.Banner
		)
		if ok, err := p.Props.Decode("profile", &u); err != nil || !ok {
			return fmt.Errorf("profile prop missing: %v", err)
		}
		_, _ = p.Props.Decode("memberSince", &memberSince)
		_, _ = p.Props.Decode("banner", &banner)

		if asHTML {
			for _, c := range []templ.Component{
				widgets.RoleSwitcher(&u, p.URL),
				widgets.ProfileHeader(&u, memberSince),
				widgets.AdBanner(banner),
			} {
				if err := c.Render(ctx, s.out); err != nil {
					return err
				}
			}
			fmt.Fprintln(s.out)
			return nil
		}

		fmt.Fprintf(s.out, "%s <%s>\n", u.Name, u.Email)
		fmt.Fprintf(s.out, "Role: %s\n", widgets.RoleTreatment(u.Role).Label)
		if u.Role == models.RoleVendor && u.VendorStatus != nil {
			fmt.Fprintf(s.out, "Vendor status: %s\n", widgets.VendorStatusTreatment(*u.VendorStatus).Label)
		}
		if memberSince != "" {
			fmt.Fprintf(s.out, "Member since %s\n", memberSince)
		}
		return nil
	})
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered header widgets")
	return cmd
}

/* ================================ Checkout ============================== */

func checkoutCmd(cfg *config.Config) *cobra.Command {
	var (
		advance bool
		token   string
	)
	cmd := &cobra.Command{
		Use:   "checkout ORDER_ID",
		Short: "Show an order's checkout progress, optionally advancing it",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = signedIn(cfg, func(ctx context.Context, s *session, args []string) error {
		params := map[string]string{"id": args[0]}
		p, err := s.visit(ctx, "checkout.show", params)
		if err != nil {
			return err
		}
		if advance {
			url, err := s.nav.URL("checkout.advance", params)
			if err != nil {
				return err
			}
			body := map[string]string{}
			if token != "" {
				body["payment_token"] = token
			}
			out, err := s.nav.Post(ctx, url, body)
			report(s.out, s.tray, out)
			if err != nil {
				return err
			}
			if out.Failed() {
				return errRejected
			}
			p = out.Page
		}

		var o page.Order
		if _, err := p.Props.Decode("order", &o); err != nil {
			return err
		}
		for _, st := range widgets.Steps(o.Status) {
			mark := " "
			switch st.State {
			case widgets.StepDone:
				mark = "✓"
			case widgets.StepCurrent:
				mark = ">"
			}
			fmt.Fprintf(s.out, "[%s] %s\n", mark, st.Label)
		}
		return nil
	})
	cmd.Flags().BoolVar(&advance, "advance", false, "advance the order one step")
	cmd.Flags().StringVar(&token, "token", "", "payment token for the payment step")
	return cmd
}
