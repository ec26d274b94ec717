package seed

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetSource reads every row of readRange (for example "Unicorns!A:G")
// from a Google Sheets spreadsheet using a service account credentials file.
// The range must include the header row.
func NewSheetSource(ctx context.Context, spreadsheetID, readRange, credentialsPath string) (Source, error) {
	srv, err := sheets.NewService(
		ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.
		Get(spreadsheetID, readRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("using %s unable to retrieve worksheet data: %w", spreadsheetID, err)
	}

	records, err := recordsFromValues(resp.Values)
	if err != nil {
		return nil, err
	}
	return &sliceSource{
		name:    fmt.Sprintf("sheet:%s!%s", spreadsheetID, readRange),
		records: records,
	}, nil
}

// recordsFromValues maps every row after the first onto the header found in
// the first row. Short rows are padded with empty cells.
func recordsFromValues(values [][]interface{}) ([]RawRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}

	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(cell))
	}
	if err := checkHeaders(headers); err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(values)-1)
	for _, r := range values[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			var cellVal string
			if i < len(r) {
				cellVal = strings.TrimSpace(fmt.Sprint(r[i]))
			}
			row[h] = cellVal
		}
		records = append(records, recordFromMap(row))
	}
	return records, nil
}
