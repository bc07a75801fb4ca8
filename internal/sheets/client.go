// Package sheets pulls raw sales rows from the online spreadsheet.
// It is the pipeline's only I/O stage: everything downstream works on
// the rows it returns and never touches the network.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

// sheetKeyPattern extracts the spreadsheet key from a sharing URL.
var (
	sheetKeyPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	bareKeyPattern  = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

// ExtractSheetKey accepts either a full spreadsheet URL or a bare key
// and returns the key.
func ExtractSheetKey(ref string) (string, error) {
	if m := sheetKeyPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if bareKeyPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("no spreadsheet key in %q", ref)
}

// Config holds everything the client needs to reach the spreadsheet.
type Config struct {
	// SheetURL is the sharing URL or bare spreadsheet key.
	SheetURL string

	// TargetsSheet names the worksheet holding daily revenue targets.
	// Empty disables target loading.
	TargetsSheet string

	// CredentialsFile is the service account key, plain or encrypted.
	CredentialsFile string

	// CredentialsKey unlocks an encrypted credentials file.
	CredentialsKey string

	// Timeout bounds each spreadsheet API call.
	Timeout time.Duration
}

// Validate reports whether the configuration can produce a client.
func (c Config) Validate() error {
	if c.SheetURL == "" {
		return fmt.Errorf("sheet URL is required")
	}
	if _, err := ExtractSheetKey(c.SheetURL); err != nil {
		return err
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file is required")
	}
	return nil
}

// Client reads the sales workbook over the spreadsheet API.
type Client struct {
	service *sheetsapi.Service
	sheetID string
	config  Config
	logger  *slog.Logger
}

// NewClient builds a read-only spreadsheet client from the service
// account credentials named in the config.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("sheets config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	sheetID, err := ExtractSheetKey(config.SheetURL)
	if err != nil {
		return nil, err
	}

	credentials, err := LoadCredentials(config.CredentialsFile, config.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	wipe(credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "sheets client ready",
		slog.String("sheet_id", sheetID),
		slog.String("targets_sheet", config.TargetsSheet),
	)

	return &Client{
		service: service,
		sheetID: sheetID,
		config:  config,
		logger:  logger,
	}, nil
}

// SheetID returns the spreadsheet key the client reads from.
func (c *Client) SheetID() string {
	return c.sheetID
}

// Ping verifies the spreadsheet is reachable with the configured
// credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, err := c.service.Spreadsheets.Get(c.sheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("spreadsheet unreachable: %w", err)
	}
	return nil
}

// FetchRows pulls every year worksheet concurrently and returns their
// raw rows in worksheet order. Non-year tabs are ignored.
func (c *Client) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	titles, err := c.yearSheets(ctx)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no year worksheets", c.sheetID)
	}

	started := time.Now()
	grids := make([][][]string, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	for i, title := range titles {
		g.Go(func() error {
			grid, err := c.fetchGrid(gctx, title)
			if err != nil {
				return fmt.Errorf("worksheet %s: %w", title, err)
			}
			grids[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	for i, title := range titles {
		rows = append(rows, dataprocessing.RowsFromGrid(title, grids[i])...)
	}

	c.logger.InfoContext(ctx, "fetched sales rows",
		slog.Int("worksheets", len(titles)),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return rows, nil
}

// FetchTargetRows pulls the targets worksheet. An unconfigured sheet
// means no targets are set and yields nothing. A fetch failure is
// returned to the caller, which degrades the targets view rather than
// failing the refresh.
func (c *Client) FetchTargetRows(ctx context.Context) ([]domain.RawRow, error) {
	if c.config.TargetsSheet == "" {
		return nil, nil
	}

	grid, err := c.fetchGrid(ctx, c.config.TargetsSheet)
	if err != nil {
		return nil, fmt.Errorf("targets worksheet %s: %w", c.config.TargetsSheet, err)
	}
	return dataprocessing.RowsFromGrid(c.config.TargetsSheet, grid), nil
}

// yearSheets lists the worksheet titles that look like year tabs,
// sorted ascending.
func (c *Client) yearSheets(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	meta, err := c.service.Spreadsheets.Get(c.sheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}

	titles := make([]string, 0, len(meta.Sheets))
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && dataprocessing.IsYearSheet(sheet.Properties.Title) {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

func (c *Client) fetchGrid(ctx context.Context, title string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.service.Spreadsheets.Values.Get(c.sheetID, fmt.Sprintf("'%s'", title)).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return gridFromValues(resp.Values), nil
}

// gridFromValues renders the API's untyped cells as strings, the form
// the normalizer coerces from.
func gridFromValues(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			cells[j] = fmt.Sprintf("%v", cell)
		}
		grid[i] = cells
	}
	return grid
}
