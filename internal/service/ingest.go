package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wachira/pesaflow/internal/database/repository"
	"github.com/wachira/pesaflow/internal/heuristic"
	"github.com/wachira/pesaflow/internal/llm"
)

// IngestService imports statement rows into storage. CSV rows come straight
// from bank exports; PDF and image statements go through the remote parser.
type IngestService struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	Loyalty      *repository.LoyaltyRepo
	Provider     llm.Enricher

	accountCache map[string]repository.Account
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ErrStatementParse is returned when the remote parser cannot read a
// statement file; the caller should prompt for manual entry.
var ErrStatementParse = errors.New("statement could not be parsed; enter transactions manually")

// ImportCSV ingests rows of (date, amount, description). Negative amounts
// become expenses, positive amounts income; magnitudes are stored unsigned.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, accountName string, tz *time.Location) (IngestResult, error) {
	if tz == nil {
		tz = time.Local
	}
	res := IngestResult{}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	acct, err := s.accountForName(ctx, accountName)
	if err != nil {
		return res, err
	}

	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) < 3 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected 3 columns (date, amount, description)", line))
			continue
		}
		date, err := parseLocalDate(rec[0], tz)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amountCents, err := shillingsToCents(rec[1])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		desc := strings.TrimSpace(rec[2])
		if err := s.insertRow(ctx, acct, date, amountCents, desc, &res); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
		}
	}
	return res, nil
}

// ImportStatement sends a statement file to the remote parser and stores the
// rows it returns. Parse failure is surfaced to the caller, not swallowed:
// unlike enrichment, a failed import leaves the user with nothing to correct.
func (s *IngestService) ImportStatement(ctx context.Context, data []byte, mimeType, accountName string, tz *time.Location) (IngestResult, error) {
	if tz == nil {
		tz = time.Local
	}
	res := IngestResult{}

	var rows []llm.ParsedRow
	err := llm.Retry(ctx, llm.DefaultAttempts, llm.DefaultRetryDelay, func() error {
		var callErr error
		rows, callErr = s.Provider.ParseStatement(ctx, data, mimeType)
		return callErr
	})
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrStatementParse, err)
	}

	acct, err := s.accountForName(ctx, accountName)
	if err != nil {
		return res, err
	}
	for i, row := range rows {
		date, err := parseLocalDate(row.Date, tz)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("row %d date: %w", i+1, err))
			continue
		}
		// The declared type is authoritative; the sign only decides when
		// the model omits the type.
		amountCents := int64(math.Round(row.Amount * 100))
		switch row.Type {
		case repository.TypeExpense:
			if amountCents > 0 {
				amountCents = -amountCents
			}
		case repository.TypeIncome:
			if amountCents < 0 {
				amountCents = -amountCents
			}
		}
		if err := s.insertRow(ctx, acct, date, amountCents, strings.TrimSpace(row.Description), &res); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("row %d insert: %w", i+1, err))
		}
	}
	return res, nil
}

// insertRow stores one signed-amount row, deduping on the source hash, and
// feeds any loyalty-points mention to the card ledger.
func (s *IngestService) insertRow(ctx context.Context, acct repository.Account, date time.Time, signedCents int64, desc string, res *IngestResult) error {
	txType := repository.TypeIncome
	magnitude := signedCents
	if signedCents < 0 {
		txType = repository.TypeExpense
		magnitude = -signedCents
	}
	t := repository.Transaction{
		ID:          uuid.NewString(),
		AccountID:   acct.ID,
		Date:        date,
		AmountCents: magnitude,
		Type:        txType,
		Description: desc,
		SourceHash:  hashSource(acct.ID, date.Format(time.DateOnly), strconv.FormatInt(signedCents, 10), desc),
	}
	if err := s.Transactions.Insert(ctx, t); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			res.Skipped++
			return nil
		}
		return err
	}
	res.Imported++

	if s.Loyalty != nil {
		if points, ok := heuristic.ExtractPoints(desc); ok {
			card := repository.LoyaltyCard{
				ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("loyalty:"+acct.Name)).String(),
				Name:   acct.Name,
				Points: points,
			}
			if err := s.Loyalty.SetPoints(ctx, card); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("loyalty points: %w", err))
			}
		}
	}
	return nil
}

func shillingsToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

func hashSource(parts ...string) *string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	h := fmt.Sprintf("%x", sum[:])
	return &h
}

func parseLocalDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2/01/2006", "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (s *IngestService) accountForName(ctx context.Context, name string) (repository.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Account{}, errors.New("account name required")
	}
	if s.accountCache == nil {
		s.accountCache = make(map[string]repository.Account)
	}
	if acct, ok := s.accountCache[name]; ok {
		return acct, nil
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("acct:"+strings.ToLower(name))).String()
	acct := repository.Account{ID: id, Name: name, Institution: name, AccountType: "checking"}
	if err := s.Accounts.Upsert(ctx, acct); err != nil {
		return repository.Account{}, err
	}
	s.accountCache[name] = acct
	return acct, nil
}
