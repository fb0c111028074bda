package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/jgesser/mobilecloud-15/internal/entrypoint"
	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

func makeUploadCMD() cli.Command {
	uploadCMD := cli.Command{
		Name:    "upload",
		Aliases: []string{"u"},
		Usage:   "Uploads a local file, registering a new catalog entry unless --id is given",
		Action:  upload,
	}
	uploadCMD.Flags = append(uploadCMD.Flags,
		cli.StringFlag{
			Name:  "path",
			Usage: "file to upload (required)",
		},
		cli.Int64Flag{
			Name:  "id",
			Usage: "existing video id",
		},
		cli.StringFlag{
			Name:  "title",
			Usage: "title for a new entry (default: file name)",
		},
		cli.StringFlag{
			Name:  "content-type",
			Usage: "content type for a new entry (default: sniffed)",
		},
		cli.Int64Flag{
			Name:  "duration",
			Usage: "duration in seconds for a new entry",
		},
	)
	return uploadCMD
}

func upload(c *cli.Context) error {
	if c.String("path") == "" {
		return errors.New("--path is required")
	}
	return withApp(c, func(ctx context.Context, app *entrypoint.App) error {
		res, err := app.Uploader.RunUpload(ctx, transfer.UploadRequest{
			VideoID:     c.Int64("id"),
			Path:        c.String("path"),
			Title:       c.String("title"),
			ContentType: c.String("content-type"),
			Duration:    c.Int64("duration"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "uploaded %s to video %d (transfer %s)\n", humanize.Bytes(uint64(res.Bytes)), res.VideoID, res.TransferID)
		return nil
	})
}

func makeDownloadCMD() cli.Command {
	downloadCMD := cli.Command{
		Name:    "download",
		Aliases: []string{"d"},
		Usage:   "Downloads a video payload into the download directory",
		Action:  download,
	}
	downloadCMD.Flags = append(downloadCMD.Flags,
		cli.Int64Flag{
			Name:  "id",
			Usage: "video id (required)",
		},
		cli.StringFlag{
			Name:  "dir",
			Usage: "download directory (default $DOWNLOAD_DIR)",
		},
	)
	return downloadCMD
}

func download(c *cli.Context) error {
	if !c.IsSet("id") {
		return errors.New("--id is required")
	}
	return withApp(c, func(ctx context.Context, app *entrypoint.App) error {
		worker := app.Downloader
		if c.IsSet("dir") {
			worker = transfer.NewWorker(app.Remote,
				transfer.WithRecorder(app.Transfers),
				transfer.WithEvents(app.Events),
				transfer.WithDownloadDir(c.String("dir")),
			)
		}

		req := transfer.DownloadRequest{VideoID: c.Int64("id")}
		if row, err := app.Coordinator.LoadOne(ctx, req.VideoID); err == nil {
			req.ContentType = row.ContentType
		}

		res, err := worker.RunDownload(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "downloaded %s to %s\n", humanize.Bytes(uint64(res.Bytes)), res.Path)
		return nil
	})
}
