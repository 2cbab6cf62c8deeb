// Command scryfall-thermal prints a random creature card on a thermal
// receipt printer. In hardware mode a rotary encoder picks the mana value
// on a two-digit seven-segment display and the button triggers the print;
// in direct mode the value comes from --mv or an interactive prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/display"
	"github.com/sweeney/scryfall-thermal/internal/gpio"
	"github.com/sweeney/scryfall-thermal/internal/logic"
	"github.com/sweeney/scryfall-thermal/internal/mqtt"
	"github.com/sweeney/scryfall-thermal/internal/printer"
	"github.com/sweeney/scryfall-thermal/internal/raster"
	"github.com/sweeney/scryfall-thermal/internal/render"
	"github.com/sweeney/scryfall-thermal/internal/scryfall"
	"github.com/sweeney/scryfall-thermal/internal/status"
	"github.com/sweeney/scryfall-thermal/internal/web"
)

// mvUnset marks --mv as omitted (-1 is the valid "any value" sentinel).
const mvUnset = -2

// netDialTimeout bounds the TCP connection attempt per print job.
const netDialTimeout = 5 * time.Second

type config struct {
	mv          int
	hardware    bool
	printerSpec string
	dryRun      bool
	output      string
	width       int
	timeout     time.Duration
	minMV       int
	maxMV       int
	encoderA    int
	encoderB    int
	encoderSW   int
	segPins     []int
	digitPins   []int
	refreshHz   float64
	settle      time.Duration
	poll        time.Duration
	errorHold   time.Duration
	broker      string
	httpAddr    string
	selfTest    string
}

func main() {
	mv := flag.Int("mv", mvUnset, "direct mode mana value (-1 = any, omit to be prompted)")
	hardware := flag.Bool("hardware", false, "run the encoder and display control loop")
	printerSpec := flag.String("printer", "", "printer transport: usb:VID:PID (hex) or net:host[:port]")
	dryRun := flag.Bool("dry-run", false, "write the receipt to a PNG instead of printing")
	output := flag.String("output", "output.png", "dry-run PNG path")
	width := flag.Int("width", 384, "receipt width in pixels (384 or 576)")
	timeout := flag.Duration("timeout", 10*time.Second, "card lookup timeout")
	minMV := flag.Int("min-mv", 0, "lowest selectable mana value")
	maxMV := flag.Int("max-mv", 16, "highest selectable mana value")
	encoderA := flag.Int("encoder-a", gpio.DefaultEncoderA, "BCM pin for encoder channel A")
	encoderB := flag.Int("encoder-b", gpio.DefaultEncoderB, "BCM pin for encoder channel B")
	encoderSW := flag.Int("encoder-sw", gpio.DefaultEncoderSW, "BCM pin for the encoder push button")
	segPins := flag.String("seg-pins", pinCSV(gpio.DefaultSegmentPins), "8 BCM pins for segments a-g,dp")
	digitPins := flag.String("digit-pins", pinCSV(gpio.DefaultDigitPins), "2 BCM pins for digit commons, tens first")
	refreshHz := flag.Float64("refresh-hz", 150, "per-digit display refresh rate")
	settle := flag.Duration("settle", 5*time.Millisecond, "input settle interval")
	poll := flag.Duration("poll", time.Millisecond, "input poll interval")
	errorHold := flag.Duration("error-hold", 2*time.Second, "how long the error blink is shown")
	broker := flag.String("broker", "", "MQTT broker address (empty disables telemetry)")
	httpAddr := flag.String("http", "", "HTTP status address (empty disables)")
	selfTest := flag.String("self-test", "", `hardware self test: "display" or "input"`)

	flag.Parse()

	seg, err := parsePinList(*segPins, 8)
	if err != nil {
		log.Fatalf("fatal: --seg-pins: %v", err)
	}
	dig, err := parsePinList(*digitPins, 2)
	if err != nil {
		log.Fatalf("fatal: --digit-pins: %v", err)
	}

	cfg := config{
		mv:          *mv,
		hardware:    *hardware,
		printerSpec: *printerSpec,
		dryRun:      *dryRun,
		output:      *output,
		width:       *width,
		timeout:     *timeout,
		minMV:       *minMV,
		maxMV:       *maxMV,
		encoderA:    *encoderA,
		encoderB:    *encoderB,
		encoderSW:   *encoderSW,
		segPins:     seg,
		digitPins:   dig,
		refreshHz:   *refreshHz,
		settle:      *settle,
		poll:        *poll,
		errorHold:   *errorHold,
		broker:      *broker,
		httpAddr:    *httpAddr,
		selfTest:    *selfTest,
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	if cfg.width != 384 && cfg.width != 576 {
		return fmt.Errorf("width %d not supported (use 384 or 576)", cfg.width)
	}
	if cfg.minMV < 0 || cfg.maxMV > 99 || cfg.minMV > cfg.maxMV {
		return fmt.Errorf("bad mana value range %d..%d", cfg.minMV, cfg.maxMV)
	}

	if cfg.selfTest != "" {
		return runSelfTest(cfg)
	}
	if cfg.hardware {
		return runHardware(cfg)
	}
	return runDirect(cfg)
}

// openTransport selects the print sink. With --dry-run or no --printer the
// receipt lands in a PNG; otherwise a bad spec or unreachable device is an
// error, never a silent fallback.
func openTransport(cfg config) (printer.Transport, error) {
	if cfg.dryRun || cfg.printerSpec == "" {
		log.Printf("printer: writing receipts to %s", cfg.output)
		return &printer.FileTransport{Path: cfg.output}, nil
	}

	spec, err := printer.ParseSpec(cfg.printerSpec)
	if err != nil {
		return nil, err
	}
	switch spec.Kind {
	case "usb":
		return printer.OpenUSB(spec.Vendor, spec.Product)
	case "net":
		return printer.NewNet(spec.Host, spec.Port, netDialTimeout), nil
	}
	return nil, fmt.Errorf("printer spec kind %q not supported", spec.Kind)
}

// runDirect fetches and prints a single card, then exits.
func runDirect(cfg config) error {
	value := cfg.mv
	if value == mvUnset {
		v, err := promptValue(os.Stdin, os.Stdout, cfg.maxMV)
		if err != nil {
			return err
		}
		value = v
	}
	if value != scryfall.AnyManaValue && (value < 0 || value > 99) {
		return fmt.Errorf("mana value %d out of range", value)
	}

	transport, err := openTransport(cfg)
	if err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	defer transport.Close()

	client := scryfall.NewClient(cfg.timeout)
	symbols := scryfall.OpenSymbolCache(scryfall.DefaultSymbolsDir(), cfg.timeout)
	composer := &render.Composer{Glyphs: symbols}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	card, err := fetchCard(ctx, client, value)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	log.Printf("card: %s (%s)", card.Name, card.TypeLine)

	if err := symbols.Ensure(ctx); err != nil {
		log.Printf("symbol cache unavailable, using literal symbols: %v", err)
	}

	bm, err := composer.Compose(card, cfg.width)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	job, err := raster.Encode(bm)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := transport.Print(job); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	log.Printf("printed %s (%d rows)", card.Name, bm.Height)
	return nil
}

// runHardware runs the kiosk: display refresh, input polling, and a print
// job per button confirm.
func runHardware(cfg config) error {
	chip, err := gpio.NewRealChip()
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	in, err := openInputs(chip, cfg)
	if err != nil {
		return err
	}
	driver, err := display.New(chip, cfg.segPins, cfg.digitPins, cfg.refreshHz)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}

	transport, err := openTransport(cfg)
	if err != nil {
		return fmt.Errorf("open printer: %w", err)
	}
	defer transport.Close()

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.broker)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	}

	printerName := cfg.printerSpec
	if cfg.dryRun || printerName == "" {
		printerName = "file:" + cfg.output
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:    cfg.poll.Milliseconds(),
		SettleMs:  cfg.settle.Milliseconds(),
		RefreshHz: int(cfg.refreshHz),
		MinValue:  cfg.minMV,
		MaxValue:  cfg.maxMV,
		WidthPx:   cfg.width,
		Printer:   printerName,
		Broker:    cfg.broker,
		HTTPAddr:  cfg.httpAddr,
	})

	if publisher != nil {
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	sel := logic.NewSelector(cfg.minMV, cfg.maxMV, cfg.errorHold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go driver.Run(ctx, sel.Frame)

	job := &jobRunner{
		sel:       sel,
		client:    scryfall.NewClient(cfg.timeout),
		symbols:   scryfall.OpenSymbolCache(scryfall.DefaultSymbolsDir(), cfg.timeout),
		transport: transport,
		publisher: publisher,
		tracker:   tracker,
		width:     cfg.width,
		timeout:   cfg.timeout,
		now:       time.Now,
	}
	job.composer = &render.Composer{Glyphs: job.symbols}

	log.Printf("started: poll=%v settle=%v range=%d..%d printer=%s",
		cfg.poll, cfg.settle, cfg.minMV, cfg.maxMV, printerName)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	startJob := func(value int) { go job.run(value) }
	return runLoop(in, sel, cfg.settle, startJob, publisher, mqttStatus, tracker, time.Now, ticker.C, sigCh)
}

// inputs bundles the three debounced input lines.
type inputs struct {
	a, b, sw gpio.InputLine
}

func openInputs(chip gpio.Chip, cfg config) (inputs, error) {
	a, err := chip.Input(cfg.encoderA)
	if err != nil {
		return inputs{}, fmt.Errorf("encoder pin A: %w", err)
	}
	b, err := chip.Input(cfg.encoderB)
	if err != nil {
		return inputs{}, fmt.Errorf("encoder pin B: %w", err)
	}
	sw, err := chip.Input(cfg.encoderSW)
	if err != nil {
		return inputs{}, fmt.Errorf("button pin: %w", err)
	}
	return inputs{a: a, b: b, sw: sw}, nil
}

// runLoop polls the inputs until a signal arrives. Encoder transitions are
// debounced, decoded, and fed to the selector; a confirmed button press
// starts a print job.
func runLoop(in inputs, sel *logic.Selector, settle time.Duration, startJob func(int), publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	deb := logic.NewDebouncer(settle)
	var acc *logic.StepAccumulator

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName,
					Retained:  true,
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					snap := tracker.Snapshot()
					event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()

			levelA, errA := in.a.Level()
			levelB, errB := in.b.Level()
			levelSW, errSW := in.sw.Level()
			if errA != nil || errB != nil || errSW != nil {
				log.Printf("gpio read error: a=%v b=%v sw=%v", errA, errB, errSW)
				continue
			}

			deb.Sample(logic.InputEncoderA, levelA, t)
			deb.Sample(logic.InputEncoderB, levelB, t)
			buttonEdge := deb.Sample(logic.InputButton, levelSW, t)

			a, okA := deb.Level(logic.InputEncoderA)
			b, okB := deb.Level(logic.InputEncoderB)
			if okA && okB {
				bits := encoderBits(a, b)
				if acc == nil {
					acc = logic.NewStepAccumulator(bits)
				} else if step := acc.Advance(bits); step != 0 {
					sel.Step(step)
				}
			}

			// The button idles high through the pull-up; a press is the
			// falling edge.
			if buttonEdge != nil && !buttonEdge.Rising {
				if value, ok := sel.Confirm(); ok {
					log.Printf("confirmed mana value %d", value)
					startJob(value)
				}
			}

			sel.Tick(t)
			if tracker != nil {
				tracker.Update(sel.Mode(), sel.Value(), sel.Discarded())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// encoderBits packs the two channel levels for the quadrature decoder.
func encoderBits(a, b bool) uint8 {
	var bits uint8
	if a {
		bits |= 2
	}
	if b {
		bits |= 1
	}
	return bits
}

// jobRunner executes one fetch-compose-print sequence per confirm. It
// reports progress through the selector and never blocks the input or
// display loops.
type jobRunner struct {
	sel       *logic.Selector
	client    *scryfall.Client
	symbols   *scryfall.SymbolCache
	composer  *render.Composer
	transport printer.Transport
	publisher mqtt.Publisher
	tracker   *status.Tracker
	width     int
	timeout   time.Duration
	now       func() time.Time
}

func (j *jobRunner) run(value int) {
	j.publish(mqtt.Event{
		Timestamp: j.now(),
		Type:      mqtt.EventSelected,
		ManaValue: value,
	})

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	card, err := fetchCard(ctx, j.client, value)
	if err != nil {
		j.fail(value, fmt.Sprintf("lookup: %v", err))
		return
	}
	log.Printf("card: %s (%s)", card.Name, card.TypeLine)

	j.sel.Rendering()
	if err := j.symbols.Ensure(ctx); err != nil {
		log.Printf("symbol cache unavailable, using literal symbols: %v", err)
	}
	bm, err := j.composer.Compose(card, j.width)
	if err != nil {
		j.fail(value, fmt.Sprintf("compose: %v", err))
		return
	}
	job, err := raster.Encode(bm)
	if err != nil {
		j.fail(value, fmt.Sprintf("encode: %v", err))
		return
	}

	j.sel.Printing()
	if err := j.transport.Print(job); err != nil {
		j.fail(value, fmt.Sprintf("print: %v", err))
		return
	}

	j.sel.Done()
	log.Printf("printed %s (%d rows)", card.Name, bm.Height)
	if j.tracker != nil {
		j.tracker.RecordPrint(card.Name)
	}
	j.publish(mqtt.Event{
		Timestamp: j.now(),
		Type:      mqtt.EventPrinted,
		ManaValue: value,
		Card:      card.Name,
	})
}

func (j *jobRunner) fail(value int, detail string) {
	log.Printf("job failed: %s", detail)
	j.sel.Fail(j.now())
	if j.tracker != nil {
		j.tracker.RecordFailure(detail)
	}
	j.publish(mqtt.Event{
		Timestamp: j.now(),
		Type:      mqtt.EventFailed,
		ManaValue: value,
		Detail:    detail,
	})
}

func (j *jobRunner) publish(event mqtt.Event) {
	if j.publisher == nil {
		return
	}
	if err := j.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}

// fetchCard looks up a random creature and fetches its art. A failed art
// fetch degrades to a text-only receipt rather than failing the job.
func fetchCard(ctx context.Context, client *scryfall.Client, value int) (render.Card, error) {
	card, err := client.RandomCreature(ctx, value)
	if err != nil {
		return render.Card{}, err
	}

	rc := render.Card{
		Name:       card.Name,
		ManaCost:   card.ManaCost,
		ManaValue:  card.ManaValue,
		TypeLine:   card.TypeLine,
		OracleText: card.OracleText,
		Power:      card.Power,
		Toughness:  card.Toughness,
	}
	if card.ImageURL != "" {
		art, err := client.FetchImage(ctx, card.ImageURL)
		if err != nil {
			log.Printf("art fetch failed, printing without art: %v", err)
		} else {
			rc.Art = art
		}
	}
	return rc, nil
}

// runSelfTest exercises the hardware without the card pipeline.
func runSelfTest(cfg config) error {
	chip, err := gpio.NewRealChip()
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.selfTest {
	case "display":
		driver, err := display.New(chip, cfg.segPins, cfg.digitPins, cfg.refreshHz)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		return selfTestDisplay(driver, sigCh)
	case "input":
		in, err := openInputs(chip, cfg)
		if err != nil {
			return err
		}
		return selfTestInput(in, cfg.settle, cfg.poll, sigCh)
	}
	return fmt.Errorf("self-test mode %q not supported (use display or input)", cfg.selfTest)
}

// selfTestDisplay counts 0..99 on the display, 200ms per value.
func selfTestDisplay(driver *display.Driver, sig <-chan os.Signal) error {
	log.Printf("display self test: counting 0..99")
	for v := 0; v <= 99; v++ {
		tens := v / 10
		if tens == 0 {
			tens = -1
		}
		frame := logic.Frame{Tens: tens, Ones: v % 10}

		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			select {
			case s := <-sig:
				log.Printf("received %v, stopping", s)
				return nil
			default:
			}
			if err := driver.RefreshOnce(frame); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
		}
	}
	return nil
}

// selfTestInput echoes decoded encoder steps and button edges to the log.
func selfTestInput(in inputs, settle, poll time.Duration, sig <-chan os.Signal) error {
	log.Printf("input self test: turn the knob, press the button, ^C to stop")
	deb := logic.NewDebouncer(settle)
	var acc *logic.StepAccumulator

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, stopping", s)
			return nil
		case t := <-ticker.C:
			levelA, errA := in.a.Level()
			levelB, errB := in.b.Level()
			levelSW, errSW := in.sw.Level()
			if errA != nil || errB != nil || errSW != nil {
				log.Printf("gpio read error: a=%v b=%v sw=%v", errA, errB, errSW)
				continue
			}

			deb.Sample(logic.InputEncoderA, levelA, t)
			deb.Sample(logic.InputEncoderB, levelB, t)
			buttonEdge := deb.Sample(logic.InputButton, levelSW, t)

			a, okA := deb.Level(logic.InputEncoderA)
			b, okB := deb.Level(logic.InputEncoderB)
			if okA && okB {
				bits := encoderBits(a, b)
				if acc == nil {
					acc = logic.NewStepAccumulator(bits)
				} else if step := acc.Advance(bits); step != 0 {
					log.Printf("step %+d", step)
				}
			}

			if buttonEdge != nil {
				if buttonEdge.Rising {
					log.Printf("button up")
				} else {
					log.Printf("button down")
				}
			}
		}
	}
}

// promptValue reads the mana value interactively for direct mode.
func promptValue(r io.Reader, w io.Writer, max int) (int, error) {
	fmt.Fprintf(w, "mana value (0-%d, -1 for any): ", max)
	var v int
	if _, err := fmt.Fscan(r, &v); err != nil {
		return 0, fmt.Errorf("read mana value: %w", err)
	}
	return v, nil
}

// parsePinList parses a comma-separated BCM pin list.
func parsePinList(s string, want int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d pins, got %d", want, len(parts))
	}
	pins := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", p, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("pin %d: negative", n)
		}
		pins[i] = n
	}
	return pins, nil
}

// pinCSV renders a pin list as a flag default.
func pinCSV(pins []int) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
