package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chaerem/glance"
	"github.com/chaerem/glance/eink"
	"github.com/chaerem/glance/palette"
	"github.com/urfave/cli/v2"
)

const defaultDB = "glance.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "rotation",
			Usage: "clockwise rotation in degrees (0, 90, 180, 270)",
		},
		&cli.IntFlag{
			Name:  "width",
			Value: eink.DefaultWidth,
			Usage: "target width in pixels",
		},
		&cli.IntFlag{
			Name:  "height",
			Value: eink.DefaultHeight,
			Usage: "target height in pixels",
		},
		&cli.Float64Flag{
			Name:  "crop-x",
			Value: 50,
			Usage: "zoom window center, percent of image width",
		},
		&cli.Float64Flag{
			Name:  "crop-y",
			Value: 50,
			Usage: "zoom window center, percent of image height",
		},
		&cli.Float64Flag{
			Name:  "zoom",
			Value: 1.0,
			Usage: "zoom window magnification (>= 1.0)",
		},
		&cli.StringFlag{
			Name:  "algorithm",
			Value: "floyd-steinberg",
			Usage: "dither kernel: floyd-steinberg or atkinson",
		},
		&cli.StringFlag{
			Name:  "matcher",
			Value: "lab",
			Usage: "palette matcher: lab (perceptual) or rgb (weighted)",
		},
		&cli.BoolFlag{
			Name:  "contrast",
			Usage: "apply contrast enhancement",
		},
		&cli.BoolFlag{
			Name:  "sharpen",
			Usage: "apply sharpening",
		},
		&cli.BoolFlag{
			Name:  "trim",
			Usage: "auto-crop background margins",
		},
		&cli.IntFlag{
			Name:  "trim-tolerance",
			Value: eink.DefaultTrimTolerance,
			Usage: "per-channel tolerance for --trim",
		},
	}
}

func optionsFromContext(c *cli.Context) eink.Options {
	return eink.Options{
		Rotation:           c.Int("rotation"),
		TargetWidth:        c.Int("width"),
		TargetHeight:       c.Int("height"),
		CropX:              c.Float64("crop-x"),
		CropY:              c.Float64("crop-y"),
		Zoom:               c.Float64("zoom"),
		Algorithm:          c.String("algorithm"),
		Matcher:            c.String("matcher"),
		EnhanceContrast:    c.Bool("contrast"),
		Sharpen:            c.Bool("sharpen"),
		AutoCropWhitespace: c.Bool("trim"),
		TrimTolerance:      c.Int("trim-tolerance"),
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func main() {
	app := cli.NewApp()

	app.Name = "glance"
	app.Usage = "Glance e-ink photo frame backend"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"GLANCE_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert a photo to a packed panel framebuffer",
			ArgsUsage: "INPUT OUTPUT",
			Flags: append(conversionFlags(),
				&cli.BoolFlag{
					Name:  "raw",
					Usage: "write raw RGB8 instead of the packed 4bpp format",
				}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				data, err := os.ReadFile(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				frame, err := eink.Convert(data, optionsFromContext(c))
				if err != nil {
					return cli.Exit(err, 1)
				}

				out := frame.Pix
				if !c.Bool("raw") {
					if out, err = eink.PackFramebuffer(frame, palette.Spectra6); err != nil {
						return cli.Exit(err, 1)
					}
				}

				if err := os.WriteFile(c.Args().Get(1), out, 0644); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "batch",
			Usage:     "Convert every photo under a directory",
			ArgsUsage: "DIRECTORY",
			Flags:     conversionFlags(),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				g := glance.New(nil, newLogger(c))

				if err := g.Batch(c.Args().First(), optionsFromContext(c)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "serve",
			Usage: "Serve the HTTP API for devices and uploads",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "addr",
					Value: ":8080",
					Usage: "listen address",
				},
			},
			Action: func(c *cli.Context) error {
				db, err := glance.NewDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				logger := log.New(os.Stderr, "", log.LstdFlags)
				g := glance.New(db, logger)

				logger.Printf("Listening on %s\n", c.String("addr"))
				if err := http.ListenAndServe(c.String("addr"), g.Handler()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
