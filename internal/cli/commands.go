package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/areiqi/sitedb/data"
	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/services"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/spf13/cobra"
)

func newSeedCommand(opts *RootOptions, deps *Deps) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write default records into empty collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed(file)
			if err != nil {
				return err
			}
			n, err := deps.Store.InitializeDefaults(cmd.Context(), seed)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.Format, map[string]int{"written": n}, fmt.Sprintf("%d record(s) written", n))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (default: built-in seed)")
	return cmd
}

func loadSeed(file string) (*data.Seed, error) {
	if file == "" {
		return data.Default()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return data.ReadSeed(f)
}

func newUsersCommand(opts *RootOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage console accounts",
	}

	var name, username, password, role string
	var perms []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a console account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			permissions, err := parsePermissions(perms)
			if err != nil {
				return err
			}
			rec, err := deps.Store.Add(cmd.Context(), auth.SuperAdmin(), models.Users, map[string]any{
				"name":        name,
				"username":    auth.NormalizeUsername(username),
				"password":    password,
				"role":        strings.ToUpper(role),
				"permissions": permissions,
			})
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.Format, rec, fmt.Sprintf("user %s created with id %d", username, rec.Meta().ID))
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&username, "username", "", "login name")
	add.Flags().StringVar(&password, "password", "", "password")
	add.Flags().StringVar(&role, "role", string(models.RoleEditor), "SUPER_ADMIN, ADMIN, EDITOR or VIEWER")
	add.Flags().StringArrayVar(&perms, "perm", nil, "section=action,action (repeatable)")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

// parsePermissions reads "projects=view,add" pairs
func parsePermissions(pairs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		section, actions, ok := strings.Cut(p, "=")
		if !ok || section == "" {
			return nil, fmt.Errorf("invalid permission %q: want section=action,action", p)
		}
		list := []string{}
		for _, a := range strings.Split(actions, ",") {
			if a = strings.TrimSpace(a); a != "" {
				list = append(list, a)
			}
		}
		out[strings.TrimSpace(section)] = list
	}
	return out, nil
}

func newTrashCommand(opts *RootOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect, restore and purge deleted records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trash entries, most recently created first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := deps.Store.List(cmd.Context(), models.Trash)
			if err != nil {
				return err
			}
			if opts.Format != "text" {
				return write(cmd.OutOrStdout(), opts.Format, recs, "")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFROM\tORIGINAL ID\tDELETED")
			for _, r := range recs {
				e := r.(*models.TrashEntry)
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", e.ID, e.OriginalStore, e.OriginalID, e.DeletedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <id>",
		Short: "Move a trash entry back to its collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseID(args[0])
			if err != nil {
				return err
			}
			rec, err := deps.Store.Restore(cmd.Context(), auth.SuperAdmin(), id.Uint64())
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.Format, rec, fmt.Sprintf("restored as %s/%d", rec.Collection(), rec.Meta().ID))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete a trash entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := deps.Store.PurgeTrash(cmd.Context(), auth.SuperAdmin(), id.Uint64()); err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.Format, map[string]types.ID{"purged": id}, fmt.Sprintf("purged %d", id))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "empty",
		Short: "Permanently delete every trash entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := deps.Store.EmptyTrash(cmd.Context(), auth.SuperAdmin())
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.Format, map[string]int64{"purged": n}, fmt.Sprintf("purged %d entries", n))
		},
	})
	return cmd
}

func newExportCommand(opts *RootOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "export [collection...]",
		Short: "Print collections as YAML or JSON (all collections by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cs := models.Collections
			if len(args) > 0 {
				cs = nil
				for _, a := range args {
					c, err := models.ParseCollection(a)
					if err != nil {
						return err
					}
					cs = append(cs, c)
				}
			}

			out := make(map[string]any, len(cs))
			for _, c := range cs {
				snap, err := deps.Store.Snapshot(cmd.Context(), c)
				if err != nil {
					return err
				}
				// JSON field names, also for YAML
				if out[c.String()], err = plain(snap); err != nil {
					return err
				}
			}
			return write(cmd.OutOrStdout(), opts.Format, out, "")
		},
	}
}

// plain converts records and settings to maps keyed by their JSON names
func plain(v any) (any, error) {
	switch t := v.(type) {
	case []models.Record:
		out := make([]map[string]any, len(t))
		for i, r := range t {
			f, err := models.ToFields(r)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		return models.ToFields(v)
	}
}

func newHealthCommand(opts *RootOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the database and media endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _ := deps.DB(cmd)
			result := services.HealthCheck(deps.Config, db, deps.Log)
			format := opts.Format
			if format == "text" {
				format = "json"
			}
			if err := write(cmd.OutOrStdout(), format, result, ""); err != nil {
				return err
			}
			if result.Status != "healthy" {
				return fmt.Errorf("unhealthy: %s", result.ErrorMessage)
			}
			return nil
		},
	}
}
