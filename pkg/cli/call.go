package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/call"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const callHelp = `Commands:
  /start         start a call
  /end           end the call
  /voice <file>  transcribe an audio file as the caller's speech
  /status        show the call state
  exit           quit
Any other line is sent as the caller's question.
`

// spinnerSpeaker stops the progress spinner before the first reply chunk is printed
type spinnerSpeaker struct {
	spin *spinner.Spinner
	out  call.Speaker
}

func (s *spinnerSpeaker) Speak(ctx context.Context, text string) error {
	s.spin.Stop()
	return s.out.Speak(ctx, text)
}

func callCommand() *cli.Command {
	var (
		cfg      config
		language string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "language",
			Usage:       "Language code for speech recognition",
			Value:       "en-US",
			Sources:     cli.EnvVars("CALLCENTER_LANGUAGE"),
			Destination: &language,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "call",
		Usage: "Take a simulated call answered from the corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			store, closeStore, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			gw, err := cfg.newGateway(ctx)
			if err != nil {
				return err
			}

			spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
			spin.Suffix = " Generating response..."

			session := call.NewSession(store, gw,
				call.WithSpeaker(&spinnerSpeaker{spin: spin, out: call.NewWriterSpeaker(w, "🤖 ")}),
				call.WithAutoRespond(true),
			)
			defer session.EndCall(ctx)

			var speech adapter.Speech
			defer func() {
				if speech != nil {
					_ = speech.Close()
				}
			}()

			rl, err := readline.NewEx(&readline.Config{
				Prompt: "📞 > ",
				Stdout: w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			if store.Corpus().Empty() {
				fmt.Fprintf(w, "⚠️  Corpus not generated yet. Run 'rebuild' before asking questions.\n")
			}
			fmt.Fprint(w, callHelp)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue

				case line == "exit":
					fmt.Fprintf(w, "Goodbye\n")
					return nil

				case line == "/start":
					if err := session.StartCall(ctx); err != nil {
						printCallError(w, err)
						continue
					}
					fmt.Fprintf(w, "✅ Call started\n")

				case line == "/end":
					session.EndCall(ctx)
					fmt.Fprintf(w, "✅ Call ended\n")

				case line == "/status":
					printSnapshot(w, session.Snapshot())

				case strings.HasPrefix(line, "/voice"):
					path := strings.TrimSpace(strings.TrimPrefix(line, "/voice"))
					if path == "" {
						fmt.Fprintf(w, "usage: /voice <file>\n")
						continue
					}
					if speech == nil {
						if speech, err = cfg.newSpeech(ctx, language); err != nil {
							printCallError(w, err)
							continue
						}
					}
					if err := listenFile(ctx, session, call.NewSpeechSource(speech), path); err != nil {
						printCallError(w, err)
					}

				default:
					if err := session.SubmitUtterance(line); err != nil {
						printCallError(w, err)
						continue
					}
					spin.Start()
					_, err := session.RequestResponse(ctx)
					spin.Stop()
					if err != nil {
						printCallError(w, err)
					}
				}
			}

			return nil
		},
	}
}

// listenFile streams a transcribed audio file into the session and returns
// once the reply for it has been delivered
func listenFile(ctx context.Context, session *call.Session, source *call.SpeechSource, path string) error {
	events := make(chan model.TranscriptEvent)
	done := make(chan error, 1)
	go func() {
		done <- session.Listen(ctx, events)
	}()

	err := source.Transcribe(ctx, path, events)
	close(events)
	if listenErr := <-done; listenErr != nil && err == nil {
		err = listenErr
	}
	if err != nil {
		return goerr.Wrap(err, "failed to process audio", goerr.V("path", path))
	}
	return nil
}

func printCallError(w io.Writer, err error) {
	var genErr *model.GenerationError
	switch {
	case errors.Is(err, model.ErrNotActive):
		fmt.Fprintf(w, "⚠️  No active call. Type /start first.\n")
	case errors.Is(err, model.ErrAlreadyActive):
		fmt.Fprintf(w, "⚠️  A call is already active.\n")
	case errors.Is(err, model.ErrEmptyUtterance):
		fmt.Fprintf(w, "⚠️  Nothing to answer yet.\n")
	case errors.Is(err, model.ErrNoContext):
		fmt.Fprintf(w, "⚠️  No context available. Upload files and run 'rebuild' first.\n")
	case errors.Is(err, model.ErrResponseInProgress):
		fmt.Fprintf(w, "⚠️  Still answering the previous question.\n")
	case errors.As(err, &genErr):
		fmt.Fprintf(w, "❌ Could not generate a response (%s). Please try again.\n", genErr.Kind)
	default:
		logging.Default().Warn("call command failed", "error", err)
		fmt.Fprintf(w, "❌ %v\n", err)
	}
}

func printSnapshot(w io.Writer, snap model.CallSnapshot) {
	fmt.Fprintf(w, "Session:   %s\n", snap.ID)
	fmt.Fprintf(w, "State:     %s\n", snap.State)
	fmt.Fprintf(w, "Pending:   %s\n", snap.PendingUtterance)
	if snap.LastResponse != nil {
		fmt.Fprintf(w, "Last:      %s\n", *snap.LastResponse)
	}
	if snap.Responding {
		fmt.Fprintf(w, "Responding...\n")
	}
}
