package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"subtrack/internal/core"
	"subtrack/internal/services"
	ports "subtrack/internal/sheets"
)

var _ ports.SnapshotMirror = (*Client)(nil)

// Header is the first row written to every mirrored tab.
var Header = []interface{}{"ID", "Name", "Cost", "Currency", "Cycle", "Category", "Next Billing", "Monthly (USD)"}

// Credentials locate the service account used for the mirror.
type Credentials struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// New creates a Sheets client using service account credentials.
func New(ctx context.Context, creds Credentials, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(creds.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, creds, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service. Extra options replace the
// credential lookup entirely.
func newSheetsService(ctx context.Context, creds Credentials, opts ...goption.ClientOption) (*gsheet.Service, error) {
	if len(opts) > 0 {
		return gsheet.NewService(ctx, opts...)
	}

	serviceAccountJSON := strings.TrimSpace(creds.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(creds.ServiceAccountFile)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// MirrorSnapshot overwrites the user's tab with subs, creating the tab first
// when it does not exist.
func (c *Client) MirrorSnapshot(ctx context.Context, userID string, subs []core.Subscription) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if userID == "" {
		return core.ErrEmptyUserID
	}
	title := TabTitle(userID)

	if err := c.ensureTab(ctx, title); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, title, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: SnapshotRows(subs)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, title+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", title, err)
	}

	slog.InfoContext(ctx, "Mirrored subscriptions to sheet",
		"user_id", userID,
		"tab", title,
		"rows", resp.UpdatedRows)
	return nil
}

func (c *Client) ensureTab(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created mirror tab", "tab", title)
	return nil
}

// SnapshotRows renders subs as a header plus one row per subscription.
func SnapshotRows(subs []core.Subscription) [][]interface{} {
	rows := make([][]interface{}, 0, len(subs)+1)
	rows = append(rows, Header)
	for _, s := range subs {
		rows = append(rows, []interface{}{
			s.ID,
			s.Name,
			s.Cost.String(),
			string(s.Currency),
			string(s.Cycle),
			string(s.Category),
			s.NextBillingDate.String(),
			strconv.FormatFloat(services.NormalizedMonthlyCost(s), 'f', 2, 64),
		})
	}
	return rows
}

// TabTitle maps a user id onto a legal sheet title.
func TabTitle(userID string) string {
	r := strings.NewReplacer("[", "_", "]", "_", "*", "_", "?", "_", "/", "_", "\\", "_", ":", "_", "'", "_")
	title := "u_" + r.Replace(userID)
	if len(title) > 100 {
		title = title[:100]
	}
	return title
}
