package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lynxform/internal/config"
	"lynxform/internal/mappings"
	"lynxform/pkg/database"
)

// mappingCollection is where the registry keeps stored mapping documents.
const mappingCollection = "type_mappings"

func NewMappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage stored type mappings",
	}

	var activeOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored type mappings",
		RunE: func(c *cobra.Command, args []string) error {
			store, cleanup, err := openMappingStore()
			if err != nil {
				return err
			}
			defer cleanup()
			return runMappingsList(c.Context(), store, activeOnly, os.Stdout)
		},
	}
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active mappings")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one stored mapping as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, cleanup, err := openMappingStore()
			if err != nil {
				return err
			}
			defer cleanup()
			return runMappingsGet(c.Context(), store, args[0], os.Stdout)
		},
	}

	var createFile string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Store a type mapping from a file",
		RunE: func(c *cobra.Command, args []string) error {
			store, cleanup, err := openMappingStore()
			if err != nil {
				return err
			}
			defer cleanup()
			return runMappingsCreate(c.Context(), store, createFile, os.Stdout)
		},
	}
	createCmd.Flags().StringVarP(&createFile, "mapping", "m", "configs/mapping.json", "Path to mapping file")
	createCmd.MarkFlagRequired("mapping")

	var updateFile string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a stored mapping with the definition from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, cleanup, err := openMappingStore()
			if err != nil {
				return err
			}
			defer cleanup()
			return runMappingsUpdate(c.Context(), store, args[0], updateFile, os.Stdout)
		},
	}
	updateCmd.Flags().StringVarP(&updateFile, "mapping", "m", "configs/mapping.json", "Path to mapping file")
	updateCmd.MarkFlagRequired("mapping")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, cleanup, err := openMappingStore()
			if err != nil {
				return err
			}
			defer cleanup()
			return runMappingsDelete(c.Context(), store, args[0], os.Stdout)
		},
	}

	cmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func openMappingStore() (*mappings.MongoStore, func(), error) {
	cfg := config.LoadConfig()
	if err := cfg.RequireMongo(); err != nil {
		return nil, nil, err
	}
	client, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		discCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(discCtx)
	}
	store := &mappings.MongoStore{
		Client:     client,
		Database:   cfg.MongoDatabase,
		Collection: mappingCollection,
	}
	return store, cleanup, nil
}

func runMappingsList(ctx context.Context, store mappings.Store, activeOnly bool, w io.Writer) error {
	stored, err := store.List(ctx, activeOnly)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Fprintln(w, "No mappings stored.")
		return nil
	}
	for _, s := range stored {
		fmt.Fprintf(w, "%s  %s: %s -> %s, %d rules, active=%v\n",
			s.ID, s.Mapping.Name, s.Mapping.SourceType, s.Mapping.TargetType,
			len(s.Mapping.Rules), s.Mapping.Active)
	}
	return nil
}

func runMappingsGet(ctx context.Context, store mappings.Store, id string, w io.Writer) error {
	stored, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func runMappingsCreate(ctx context.Context, store mappings.Store, mappingFile string, w io.Writer) error {
	mapping, err := config.LoadMapping(mappingFile)
	if err != nil {
		return err
	}
	stored, err := store.Create(ctx, mapping)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created mapping %q with id %s.\n", stored.Mapping.Name, stored.ID)
	return nil
}

func runMappingsUpdate(ctx context.Context, store mappings.Store, id, mappingFile string, w io.Writer) error {
	mapping, err := config.LoadMapping(mappingFile)
	if err != nil {
		return err
	}
	stored, err := store.Update(ctx, id, mapping)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated mapping %s (%q).\n", stored.ID, stored.Mapping.Name)
	return nil
}

func runMappingsDelete(ctx context.Context, store mappings.Store, id string, w io.Writer) error {
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted mapping %s.\n", id)
	return nil
}
