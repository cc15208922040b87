package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tinyhome/internal/infra/config"
	"tinyhome/internal/infra/obs"
	"tinyhome/internal/infra/storage/s3"
)

func newGalleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage house photos",
	}
	cmd.AddCommand(newGalleryListCmd(), newGalleryUploadCmd())
	return cmd
}

func newGalleryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List gallery photo URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			gallery, err := galleryFromEnv()
			if err != nil {
				return err
			}
			photos, err := gallery.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range photos {
				fmt.Fprintln(cmd.OutOrStdout(), p.URL)
			}
			return nil
		},
	}
}

func newGalleryUploadCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload photos to the gallery bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gallery, err := galleryFromEnv()
			if err != nil {
				return err
			}
			for _, name := range args {
				photo, err := uploadFile(cmd, gallery, name, contentType)
				if err != nil {
					return fmt.Errorf("upload %s: %w", name, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), photo.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type, derived from the file extension when empty")
	return cmd
}

func uploadFile(cmd *cobra.Command, gallery s3.Gallery, name, contentType string) (s3.Photo, error) {
	f, err := os.Open(name)
	if err != nil {
		return s3.Photo{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return s3.Photo{}, err
	}
	return gallery.Upload(cmd.Context(), info.Name(), f, info.Size(), contentType)
}

func galleryFromEnv() (s3.Gallery, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	return newGallery(cfg, obs.NewLogger(cfg.Env, cfg.LogLevel))
}
