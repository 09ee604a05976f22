package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"storefront/internal/catalog"
	"storefront/internal/client"
	"storefront/internal/images"
	"storefront/internal/mirror"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	signupEmail string

	draftCategory     string
	draftGender       string
	draftName         string
	draftDescription  string
	draftPrice        string
	draftRegisterDate string
	draftSellByDate   string
	draftStock        []string
	draftImages       []string

	fetchProductID string
)

var signupCmd = &cobra.Command{
	Use:   "signup <username> <password>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().Signup(client.Signup{Username: args[0], Email: signupEmail, Password: args[1]})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Log in and print an access token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := newClient().Login(client.Credentials{Username: args[0], Password: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a product for sale",
	Long: `Register a product for sale.

Each --stock entry is SIZE=COUNT (for bags just COUNT). Apparel and caps take
Small, Medium or Large, at most 3 entries; shoes take 220 to 280 in steps of 5,
at most 12 entries; a bag has a single entry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDraft(cmd.Context())
		if err != nil {
			return err
		}
		body, err := newClient().SubmitProduct(d)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), body)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [productRegistered|cart|purchase|user|productDetail]",
	Short: "Fetch server state and print it",
	Long: `Fetch one slice of server state, or with no argument every slice that needs
no product ID, concurrently. Failed fetches are reported; slices that failed
keep their initial value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		if len(args) == 0 {
			return fetchAll(cmd.Context(), cmd.OutOrStdout(), c)
		}
		if err := fetchOne(c, args[0]); err != nil {
			return err
		}
		sl, _ := c.Store().Slice(args[0])
		return printJSON(cmd.OutOrStdout(), sl.Raw())
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address (required)")
	_ = signupCmd.MarkFlagRequired("email")

	f := registerCmd.Flags()
	f.StringVar(&draftCategory, "category", "", "apparel, cap, shoes or bag")
	f.StringVar(&draftGender, "gender", "", "woman or man")
	f.StringVar(&draftName, "name", "", "Product name")
	f.StringVar(&draftDescription, "description", "", "Product description")
	f.StringVar(&draftPrice, "price", "", "Price")
	f.StringVar(&draftRegisterDate, "register-date", "", "Registration date (YYYY-MM-DD)")
	f.StringVar(&draftSellByDate, "sell-by", "", "Sell-by date (YYYY-MM-DD)")
	f.StringArrayVar(&draftStock, "stock", nil, "SIZE=COUNT, repeatable")
	f.StringArrayVar(&draftImages, "image", nil, "Image file, repeatable")

	fetchCmd.Flags().StringVar(&fetchProductID, "id", "", "Product ID for productDetail")
}

func newClient() *client.Client {
	return client.New(cfg.ServerURL, mirror.NewStore(),
		client.WithTokenSource(client.TokenFunc(func() (string, error) { return cfg.AccessToken, nil })),
		client.WithLogger(logger),
		client.WithTimeout(cfg.RequestTimeout),
	)
}

// buildDraft fills a draft from the register flags the way the form would.
func buildDraft(ctx context.Context) (*catalog.Draft, error) {
	d := catalog.NewDraft()

	category, err := catalog.ParseCategory(draftCategory)
	if err != nil {
		return nil, err
	}
	gender, err := catalog.ParseGender(draftGender)
	if err != nil {
		return nil, err
	}
	d.SetCategory(category)
	d.Gender = gender
	d.Name = draftName
	d.Description = draftDescription
	d.Price = draftPrice
	if err := d.SetRegisterDate(draftRegisterDate); err != nil {
		return nil, err
	}
	if err := d.SetSellByDate(draftSellByDate); err != nil {
		return nil, err
	}
	if err := applyStock(d.Sizes(), draftStock); err != nil {
		return nil, err
	}

	loader := images.Loader{MaxDimension: cfg.ImageMaxDim, Logger: logger}
	if err := loader.Load(ctx, draftImages, d.AddImage); err != nil {
		return nil, err
	}

	if problems := d.Problems(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: missing or invalid %s", catalog.ErrInvalidDraft, strings.Join(problems, ", "))
	}
	return d, nil
}

func applyStock(sizes *catalog.SizeStockList, specs []string) error {
	for i, spec := range specs {
		if i > 0 && !sizes.AddEntry() {
			return fmt.Errorf("%w: %s allows %d entries", catalog.ErrIndexOutOfRange, sizes.Category(), sizes.Category().Sizing().MaxEntries)
		}
		size, count, ok := strings.Cut(spec, "=")
		if !ok {
			size, count = "", spec
		}
		if size != "" {
			if err := sizes.SetSize(i, size); err != nil {
				return fmt.Errorf("--stock %s: %w", spec, err)
			}
		}
		if err := sizes.SetStock(i, count); err != nil {
			return fmt.Errorf("--stock %s: %w", spec, err)
		}
	}
	return nil
}

func fetchOne(c *client.Client, name string) error {
	switch name {
	case mirror.ProductRegistered:
		return c.FetchRegisteredProducts()
	case mirror.Cart:
		return c.FetchCart()
	case mirror.Purchase:
		return c.FetchPurchases()
	case mirror.User:
		return c.FetchUser()
	case mirror.ProductDetail:
		if fetchProductID == "" {
			return fmt.Errorf("productDetail needs --id")
		}
		return c.FetchProductDetail(fetchProductID)
	default:
		return fmt.Errorf("unknown slice %q", name)
	}
}

func fetchAll(ctx context.Context, w io.Writer, c *client.Client) error {
	var (
		mu     sync.Mutex
		failed []string
	)
	var g errgroup.Group
	for _, name := range []string{mirror.ProductRegistered, mirror.Cart, mirror.Purchase, mirror.User} {
		name := name
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := fetchOne(c, name); err != nil {
				mu.Lock()
				failed = append(failed, name)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	snapshot, err := json.Marshal(c.Store().Snapshot())
	if err != nil {
		return err
	}
	if err := printJSON(w, snapshot); err != nil {
		return err
	}
	if len(failed) > 0 {
		logger.Warn("some slices were not refreshed", zap.Strings("slices", failed))
		return fmt.Errorf("failed to fetch %s", strings.Join(failed, ", "))
	}
	return nil
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not JSON; print as received.
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
