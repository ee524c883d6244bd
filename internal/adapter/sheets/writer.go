package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const tokenURL = "https://oauth2.googleapis.com/token"

// Credentials identify the service account used to write spreadsheets.
type Credentials struct {
	Email      string
	PrivateKey string
}

// Writer implements repository.SheetWriter against the Google Sheets v4 API.
type Writer struct {
	svc    *sheetsapi.Service
	logger *zap.Logger
}

// NewWriter builds a writer authenticated as the service account.
func NewWriter(ctx context.Context, creds Credentials, logger *zap.Logger) (*Writer, error) {
	if creds.Email == "" || creds.PrivateKey == "" {
		return nil, errors.New("google service account email and private key are required")
	}
	conf := &jwt.Config{
		Email:      creds.Email,
		PrivateKey: []byte(creds.PrivateKey),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   tokenURL,
	}
	return newWriter(ctx, logger, option.WithHTTPClient(conf.Client(ctx)))
}

func newWriter(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Writer, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Writer{svc: svc, logger: logger.Named("sheets")}, nil
}

// UpdateValues overwrites cellRange with values, stored exactly as given.
func (w *Writer) UpdateValues(ctx context.Context, spreadsheetID, cellRange string, values [][]any) error {
	vr := &sheetsapi.ValueRange{
		Range:  cellRange,
		Values: values,
	}
	resp, err := w.svc.Spreadsheets.Values.Update(spreadsheetID, cellRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s of %s: %w", cellRange, spreadsheetID, err)
	}
	w.logger.Debug("sheet values updated",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", resp.UpdatedRange),
		zap.Int64("cells", resp.UpdatedCells),
	)
	return nil
}
