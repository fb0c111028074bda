package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/entities"
	"github.com/jgesser/mobilecloud-15/internal/entrypoint"
)

func makeRefreshCMD() cli.Command {
	return cli.Command{
		Name:    "refresh",
		Aliases: []string{"r"},
		Usage:   "Replaces the local cache with the catalog's video list",
		Action:  refresh,
	}
}

func refresh(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *entrypoint.App) error {
		snap, err := app.Coordinator.Refresh(ctx)
		if err != nil {
			return errors.Wrap(err, "refresh failed, cache unchanged")
		}
		printVideos(c.App.Writer, snap)
		return nil
	})
}

func makeShowCMD() cli.Command {
	showCMD := cli.Command{
		Name:   "show",
		Usage:  "Shows cached videos without contacting the catalog",
		Action: show,
	}
	showCMD.Flags = append(showCMD.Flags,
		cli.Int64Flag{
			Name:  "id",
			Usage: "show a single video",
		},
		cli.StringFlag{
			Name:  "q",
			Usage: "only titles containing this text",
		},
	)
	return showCMD
}

func show(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *entrypoint.App) error {
		if c.IsSet("id") {
			video, err := app.Coordinator.LoadOne(ctx, c.Int64("id"))
			if err != nil {
				return err
			}
			printVideo(c.App.Writer, video)
			return nil
		}

		snap, err := app.Coordinator.Videos(ctx, videos.Filter{TitleContains: c.String("q")})
		if err != nil {
			return err
		}
		printVideos(c.App.Writer, snap)
		return nil
	})
}

func makeRateCMD() cli.Command {
	rateCMD := cli.Command{
		Name:   "rate",
		Usage:  "Submits a rating and stores the catalog's new average",
		Action: rate,
	}
	rateCMD.Flags = append(rateCMD.Flags,
		cli.Int64Flag{
			Name:  "id",
			Usage: "video id (required)",
		},
		cli.Float64Flag{
			Name:  "rating",
			Usage: "rating between 1 and 5 (required)",
		},
	)
	return rateCMD
}

func rate(c *cli.Context) error {
	if !c.IsSet("id") || !c.IsSet("rating") {
		return errors.New("--id and --rating are required")
	}
	return withApp(c, func(ctx context.Context, app *entrypoint.App) error {
		video, err := app.Coordinator.Rate(ctx, c.Int64("id"), c.Float64("rating"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d\t%s\taverage %.2f\n", video.ID, video.Title, video.AvgRating)
		return nil
	})
}

func printVideos(w io.Writer, snap *videos.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDURATION\tTYPE\tRATING\tDATA")
	for v := range snap.Rows() {
		fmt.Fprintf(tw, "%d\t%s\t%ds\t%s\t%.2f\t%t\n", v.ID, v.Title, v.Duration, v.ContentType, v.AvgRating, v.HasData())
	}
	tw.Flush()
	fmt.Fprintf(w, "%d videos\n", snap.Len())
}

func printVideo(w io.Writer, v entities.Video) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%d\n", v.ID)
	fmt.Fprintf(tw, "title:\t%s\n", v.Title)
	fmt.Fprintf(tw, "duration:\t%ds\n", v.Duration)
	fmt.Fprintf(tw, "content type:\t%s\n", v.ContentType)
	fmt.Fprintf(tw, "data url:\t%s\n", v.DataURL)
	fmt.Fprintf(tw, "rating:\t%.2f\n", v.AvgRating)
	tw.Flush()
}
