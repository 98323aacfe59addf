package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/porto-guide/internal/api"
	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
	"github.com/ironsheep/porto-guide/internal/layout"
	"github.com/ironsheep/porto-guide/internal/ocr"
	"github.com/ironsheep/porto-guide/internal/server"
	"github.com/ironsheep/porto-guide/internal/translate"
)

// serveCommand runs the MCP server on stdio.
func (c *CLI) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, store := c.newGuide(ctx)
			defer store.Close()

			c.Logger.Info("starting MCP server", "version", version)
			srv := server.New(g, server.WithLogger(c.Logger), server.WithVersion(version))
			return srv.Run(ctx)
		},
	}
}

// httpCommand runs the HTTP API.
func (c *CLI) httpCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, store := c.newGuide(ctx)
			defer store.Close()

			if addr == "" {
				addr = c.cfg.HTTP.Addr
			}
			srv := api.New(g, api.Options{
				Logger:    c.Logger,
				Version:   version,
				MaxUpload: c.cfg.HTTP.MaxUploadMiB << 20,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	return cmd
}

type scanFlags struct {
	target          string
	yThreshold      float64
	skipTranslation bool
	detections      bool
	json            bool
}

// scanCommand runs the full pipeline on one photo.
func (c *CLI) scanCommand() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Read, translate and locate a photographed sign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := f.target
			if target == "" {
				target = c.cfg.Translate.Target
			}
			t, err := translate.ParseTarget(target)
			if err != nil {
				return err
			}
			if f.yThreshold < 0 {
				return fmt.Errorf("--y-threshold must not be negative")
			}

			ctx := cmd.Context()
			g, store := c.newGuide(ctx)
			defer store.Close()
			if f.detections {
				g.Recognizer = ocr.File{}
			}

			scan, err := g.Scan(ctx, args[0], guide.Options{
				Target:          t.Code,
				YThreshold:      f.yThreshold,
				SkipTranslation: f.skipTranslation,
			})
			if errors.Is(err, guide.ErrNoText) {
				printWarning(c.out, "No text found in the image. Try a closer, sharper photo.")
				return err
			}
			if err != nil {
				return err
			}

			if f.json {
				return writeJSON(c.out, scan)
			}
			printScan(c.out, scan)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.target, "target", "t", "", "target language: English, French, Deutsch, Italian or a code")
	cmd.Flags().Float64Var(&f.yThreshold, "y-threshold", 0, "line grouping distance in pixels (default from config)")
	cmd.Flags().BoolVar(&f.skipTranslation, "no-translate", false, "skip translation")
	cmd.Flags().BoolVar(&f.detections, "detections", false, "treat the argument as an OCR detections JSON file instead of a photo")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as JSON")
	return cmd
}

// reconstructCommand prints reading-order text for a fragments file.
func (c *CLI) reconstructCommand() *cobra.Command {
	var (
		yThreshold float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "reconstruct [fragments.json]",
		Short: "Rebuild reading-order text from OCR fragments",
		Long: `Reads OCR fragments as JSON, either this tool's own format
([{"region": [{"x":..,"y":..}, ...], "text": .., "confidence": ..}]) or an
EasyOCR dump ([[[[x,y],...], text, confidence], ...]), from a file or stdin,
and prints the text grouped into lines.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if yThreshold < 0 {
				return fmt.Errorf("--y-threshold must not be negative")
			}

			var r io.Reader = c.in
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			fragments, err := ocr.ReadFragments(r)
			if err != nil {
				return err
			}
			c.Logger.Debug("read fragments", "count", len(fragments))

			text := layout.Reconstruct(fragments, yThreshold)
			if asJSON {
				lines := layout.SplitLines(text)
				if lines == nil {
					lines = []string{}
				}
				return writeJSON(c.out, map[string]interface{}{"text": text, "lines": lines})
			}
			_, err = fmt.Fprintln(c.out, text)
			return err
		},
	}

	cmd.Flags().Float64Var(&yThreshold, "y-threshold", layout.DefaultYThreshold, "line grouping distance in pixels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print text and lines as JSON")
	return cmd
}

// landmarksCommand lists landmarks, optionally ranked by distance.
func (c *CLI) landmarksCommand() *cobra.Command {
	var (
		near    string
		address string
		count   int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "landmarks",
		Short: "List landmarks, or the nearest ones to a place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			landmarks := c.loadLandmarks()
			if len(landmarks) == 0 {
				return errors.New("landmark data not available")
			}

			if near == "" && address == "" {
				if asJSON {
					return writeJSON(c.out, landmarks)
				}
				printLandmarks(c.out, landmarks)
				return nil
			}

			var origin geo.Coordinate
			fallback := false
			if near != "" {
				var err error
				if origin, err = parseCoordinate(near); err != nil {
					return err
				}
			} else {
				ctx := cmd.Context()
				g, store := c.newGuide(ctx)
				defer store.Close()

				loc, found, err := g.Geocoder.Geocode(ctx, address)
				switch {
				case err != nil:
					c.Logger.Warn("geocoding failed, using city centre", "err", err)
					origin, fallback = geo.PortoCenter, true
				case !found:
					origin, fallback = geo.PortoCenter, true
				default:
					origin = loc
				}
			}

			if count <= 0 {
				count = c.cfg.Landmarks.Top
			}
			recs := geo.Nearest(origin, landmarks, count)
			if asJSON {
				return writeJSON(c.out, map[string]interface{}{
					"origin":          origin,
					"fallback":        fallback,
					"recommendations": recs,
				})
			}
			if fallback {
				printWarning(c.out, "Address not located, showing attractions near the city centre.")
			}
			printRecommendations(c.out, recs)
			return nil
		},
	}

	cmd.Flags().StringVar(&near, "near", "", "rank by distance from \"lat,lon\"")
	cmd.Flags().StringVar(&address, "address", "", "rank by distance from a geocoded address")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of landmarks (default from config, 3)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.MarkFlagsMutuallyExclusive("near", "address")
	return cmd
}

// parseCoordinate parses "lat,lon".
func parseCoordinate(s string) (geo.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("invalid coordinate %q, want \"lat,lon\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
