package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/client"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Upload, list, and download shared files",
}

var (
	listStatus string
	listPage   int
	listLimit  int
	listSortBy string
	listOrder  string
)

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your files",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		res, err := app.api.MyFiles(cmd.Context(), client.MyFilesOptions{
			Status: listStatus,
			Page:   listPage,
			Limit:  listLimit,
			SortBy: listSortBy,
			Order:  listOrder,
		})
		if err != nil {
			return err
		}
		if len(res.Files) == 0 {
			fmt.Println("No files.")
			return nil
		}
		printFileTable(res.Files)
		fmt.Printf("\nPage %d of %d (%d files total)\n",
			res.Pagination.CurrentPage, res.Pagination.TotalPages, res.Pagination.TotalFiles)
		return nil
	},
}

var filesAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List publicly available files",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		res, err := app.api.AvailableFiles(cmd.Context(), listPage, listLimit)
		if err != nil {
			return err
		}
		if len(res.Files) == 0 {
			fmt.Println("No public files.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tOWNER\tPASSWORD\tSHARE TOKEN")
		for _, f := range res.Files {
			pw := "no"
			if f.HasPassword {
				pw = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.FileName, f.Owner, pw, f.ShareToken)
		}
		w.Flush()
		return nil
	},
}

var (
	uploadPublic     bool
	uploadPassword   string
	uploadFrom       string
	uploadTo         string
	uploadSharedWith []string
)

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		opts := client.UploadOptions{
			FileName:   filepath.Base(args[0]),
			IsPublic:   uploadPublic,
			Password:   uploadPassword,
			SharedWith: uploadSharedWith,
		}
		if uploadFrom != "" {
			if opts.AvailableFrom, err = time.Parse(time.RFC3339, uploadFrom); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
		}
		if uploadTo != "" {
			if opts.AvailableTo, err = time.Parse(time.RFC3339, uploadTo); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		uploaded, err := app.api.Upload(cmd.Context(), f, opts)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded %s (%d bytes)\n", uploaded.FileName, uploaded.Size)
		fmt.Printf("Share token: %s\n", uploaded.ShareToken)
		fmt.Printf("Share link:  %s\n", uploaded.ShareLink)
		fmt.Printf("Available:   %s to %s\n", uploaded.AvailableFrom, uploaded.AvailableTo)
		return nil
	},
}

var filesInfoCmd = &cobra.Command{
	Use:   "info <share-token>",
	Short: "Show the public info of a shared file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		info, err := app.api.FileInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Name:      %s\n", info.FileName)
		fmt.Printf("Status:    %s\n", info.Status)
		fmt.Printf("Size:      %d bytes\n", info.FileSize)
		fmt.Printf("Type:      %s\n", info.MimeType)
		fmt.Printf("Public:    %v\n", info.IsPublic)
		fmt.Printf("Password:  %v\n", info.HasPassword)
		fmt.Printf("Available: %s to %s\n", info.AvailableFrom, info.AvailableTo)
		return nil
	},
}

var (
	downloadPassword string
	downloadOut      string
)

var filesDownloadCmd = &cobra.Command{
	Use:   "download <share-token>",
	Short: "Download a shared file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		// The temp file lives in the destination directory so the final
		// rename never crosses a filesystem boundary.
		dir := "."
		if downloadOut != "" {
			dir = filepath.Dir(downloadOut)
		}
		tmp, err := os.CreateTemp(dir, ".secureshare-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		name, err := app.api.Download(cmd.Context(), args[0], downloadPassword, tmp)
		if err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}

		out := downloadOut
		if out == "" {
			out = name
		}
		if out == "" {
			out = args[0]
		}
		if err := os.Rename(tmp.Name(), out); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", out)
		return nil
	},
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete one of your files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		if err := app.api.DeleteFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("✓ File deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd, filesAvailableCmd, filesUploadCmd,
		filesInfoCmd, filesDownloadCmd, filesRmCmd)

	filesListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (active, pending, expired)")
	filesListCmd.Flags().IntVar(&listPage, "page", 0, "Page number")
	filesListCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size")
	filesListCmd.Flags().StringVar(&listSortBy, "sort-by", "", "Sort field (fileName)")
	filesListCmd.Flags().StringVar(&listOrder, "order", "", "Sort order (asc, desc)")

	filesAvailableCmd.Flags().IntVar(&listPage, "page", 0, "Page number")
	filesAvailableCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size")

	filesUploadCmd.Flags().BoolVar(&uploadPublic, "public", false, "List the file publicly")
	filesUploadCmd.Flags().StringVar(&uploadPassword, "password", "", "Protect downloads with a password")
	filesUploadCmd.Flags().StringVar(&uploadFrom, "from", "", "Sharing window start (RFC 3339)")
	filesUploadCmd.Flags().StringVar(&uploadTo, "to", "", "Sharing window end (RFC 3339)")
	filesUploadCmd.Flags().StringSliceVar(&uploadSharedWith, "share-with", nil, "Emails allowed to download a private file")

	filesDownloadCmd.Flags().StringVar(&downloadPassword, "password", "", "File password, if required")
	filesDownloadCmd.Flags().StringVarP(&downloadOut, "output", "o", "", "Output path (defaults to the server file name)")
}
