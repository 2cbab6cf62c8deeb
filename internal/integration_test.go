// End-to-end walks of the kiosk pipeline over fakes: selector state
// machine, lookup against a stub API, receipt composition, raster
// encoding, and delivery to a recorded transport.
package internal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/logic"
	"github.com/sweeney/scryfall-thermal/internal/printer"
	"github.com/sweeney/scryfall-thermal/internal/raster"
	"github.com/sweeney/scryfall-thermal/internal/render"
	"github.com/sweeney/scryfall-thermal/internal/scryfall"
)

const cardBody = `{
	"name": "Grizzly Bears",
	"cmc": 2,
	"mana_cost": "{1}{G}",
	"type_line": "Creature — Bear",
	"oracle_text": "A pair of bears.",
	"power": "2",
	"toughness": "2"
}`

func stubAPI(t *testing.T, status int, body string) *scryfall.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := scryfall.NewClient(time.Second)
	client.BaseURL = srv.URL
	return client
}

// runJob replicates the confirm-to-print sequence: fetch, compose, encode,
// print, with selector transitions at each phase.
func runJob(sel *logic.Selector, client *scryfall.Client, transport printer.Transport, now time.Time) error {
	value, ok := sel.Confirm()
	if !ok {
		return errors.New("confirm rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	card, err := client.RandomCreature(ctx, value)
	if err != nil {
		sel.Fail(now)
		return err
	}

	sel.Rendering()
	composer := &render.Composer{}
	bm, err := composer.Compose(render.Card{
		Name:       card.Name,
		ManaCost:   card.ManaCost,
		ManaValue:  card.ManaValue,
		TypeLine:   card.TypeLine,
		OracleText: card.OracleText,
		Power:      card.Power,
		Toughness:  card.Toughness,
	}, 384)
	if err != nil {
		sel.Fail(now)
		return err
	}
	job, err := raster.Encode(bm)
	if err != nil {
		sel.Fail(now)
		return err
	}

	sel.Printing()
	if err := transport.Print(job); err != nil {
		sel.Fail(now)
		return err
	}
	sel.Done()
	return nil
}

func TestPrintJobDeliversWellFormedReceipt(t *testing.T) {
	client := stubAPI(t, 200, cardBody)
	transport := printer.NewFakeTransport()
	sel := logic.NewSelector(0, 16, 2*time.Second)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sel.Step(1)
	sel.Step(1)
	if sel.Value() != 2 {
		t.Fatalf("value before confirm: got %d, want 2", sel.Value())
	}

	if err := runJob(sel, client, transport, start); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	if transport.JobCount() != 1 {
		t.Fatalf("expected 1 printed job, got %d", transport.JobCount())
	}
	data := transport.Jobs[0].Bytes()

	// The stream must begin with printer init and end with feed + cut.
	if !bytes.HasPrefix(data, []byte{0x1b, 0x40}) {
		t.Errorf("job does not start with ESC @: % x", data[:4])
	}
	if !bytes.HasSuffix(data, []byte{0x1d, 0x56, 0x42, 0x00}) {
		t.Errorf("job does not end with GS V B 0: % x", data[len(data)-4:])
	}
	if !bytes.Contains(data, []byte{0x1d, 0x76, 0x30, 0x00}) {
		t.Error("job contains no raster band")
	}

	if sel.Mode() != logic.ModeIdle {
		t.Errorf("mode after success: got %s, want IDLE", sel.Mode())
	}
	if sel.Value() != 2 {
		t.Errorf("value after print: got %d, want 2 (preserved)", sel.Value())
	}
}

func TestReceiptIsDeterministic(t *testing.T) {
	client := stubAPI(t, 200, cardBody)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var payloads [][]byte
	for i := 0; i < 2; i++ {
		transport := printer.NewFakeTransport()
		sel := logic.NewSelector(0, 16, 2*time.Second)
		sel.Step(2)
		if err := runJob(sel, client, transport, start); err != nil {
			t.Fatalf("job %d failed: %v", i, err)
		}
		payloads = append(payloads, transport.Jobs[0].Bytes())
	}

	if !bytes.Equal(payloads[0], payloads[1]) {
		t.Error("identical card produced different receipt bytes")
	}
}

func TestLookupFailureBlinksAndReverts(t *testing.T) {
	client := stubAPI(t, 404, `{"object":"error","code":"not_found"}`)
	transport := printer.NewFakeTransport()
	sel := logic.NewSelector(0, 16, 2*time.Second)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sel.Step(5)
	err := runJob(sel, client, transport, start)
	if err == nil {
		t.Fatal("expected lookup failure")
	}
	if !errors.Is(err, scryfall.ErrNotFound) {
		t.Errorf("error: got %v, want ErrNotFound", err)
	}
	if transport.JobCount() != 0 {
		t.Errorf("no job should reach the printer, got %d", transport.JobCount())
	}

	if sel.Mode() != logic.ModeError {
		t.Fatalf("mode after failure: got %s, want ERROR", sel.Mode())
	}

	// The error frame blinks: both halves of the blink period appear over
	// one full cycle.
	sawBlank, sawLit := false, false
	for i := 0; i < 8; i++ {
		f := sel.Frame(start.Add(time.Duration(i) * logic.BlinkPeriod / 8))
		if f.Blank {
			sawBlank = true
		} else {
			sawLit = true
		}
	}
	if !sawBlank || !sawLit {
		t.Errorf("error frame did not blink: blank=%v lit=%v", sawBlank, sawLit)
	}

	// Before the hold expires the machine stays in Error.
	sel.Tick(start.Add(time.Second))
	if sel.Mode() != logic.ModeError {
		t.Errorf("mode 1s after failure: got %s, want ERROR", sel.Mode())
	}

	// After the hold it reverts to Idle with the value preserved.
	sel.Tick(start.Add(2 * time.Second))
	if sel.Mode() != logic.ModeIdle {
		t.Errorf("mode after hold: got %s, want IDLE", sel.Mode())
	}
	if sel.Value() != 5 {
		t.Errorf("value after error revert: got %d, want 5", sel.Value())
	}
}

func TestTransportFailureSurfacesAsError(t *testing.T) {
	client := stubAPI(t, 200, cardBody)
	transport := printer.NewFakeTransport()
	transport.PrintError = printer.ErrUnreachable
	sel := logic.NewSelector(0, 16, 2*time.Second)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	err := runJob(sel, client, transport, start)
	if !errors.Is(err, printer.ErrUnreachable) {
		t.Fatalf("error: got %v, want ErrUnreachable", err)
	}
	if sel.Mode() != logic.ModeError {
		t.Errorf("mode after print failure: got %s, want ERROR", sel.Mode())
	}
}

func TestStepsDuringPrintAreDiscarded(t *testing.T) {
	sel := logic.NewSelector(0, 16, 2*time.Second)
	sel.Step(3)

	value, ok := sel.Confirm()
	if !ok || value != 3 {
		t.Fatalf("confirm: got (%d, %v), want (3, true)", value, ok)
	}
	sel.Rendering()
	sel.Printing()

	// Five steps arrive mid-print.
	for i := 0; i < 5; i++ {
		sel.Step(1)
	}

	sel.Done()
	if sel.Value() != 3 {
		t.Errorf("value after print: got %d, want 3 (steps discarded)", sel.Value())
	}
	if sel.Discarded() != 5 {
		t.Errorf("discarded count: got %d, want 5", sel.Discarded())
	}

	// The machine accepts steps again once idle.
	sel.Step(1)
	if sel.Value() != 4 {
		t.Errorf("value after idle step: got %d, want 4", sel.Value())
	}
}
