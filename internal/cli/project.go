package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pm-labs/pm/internal/config"
	"github.com/pm-labs/pm/internal/display"
	"github.com/pm-labs/pm/internal/project"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration document",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FilePath()
		if _, err := config.Load(path); err == nil {
			return fmt.Errorf("already initialized at %s", path)
		} else if !errors.Is(err, config.ErrNotFound) {
			return err
		}

		cfg := config.Default()
		if u, _ := cmd.Flags().GetString("github-username"); u != "" {
			cfg.GitHubUsername = u
		}
		if r, _ := cmd.Flags().GetString("projects-root"); r != "" {
			cfg.ProjectsRootDir = r
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		display.Success(os.Stdout, "initialized %s", path)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:     "add <path>",
	Aliases: []string{"a"},
	Short:   "Track a project directory",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		reg := project.NewRegistry(config.FilePath())
		entry, err := reg.Add(args[0], name, tags)
		if err != nil {
			return err
		}
		display.Success(os.Stdout, "added %s (%s)", entry.Name, entry.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked projects",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		lang, _ := cmd.Flags().GetString("language")
		limit, _ := cmd.Flags().GetInt("limit")

		reg := project.NewRegistry(config.FilePath())
		projects, err := reg.List(project.Filter{Tag: tag, Language: lang, Limit: limit})
		if err != nil {
			return err
		}
		display.ProjectList(os.Stdout, projects)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <project>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a project",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := project.NewRegistry(config.FilePath())
		id, err := resolveProjectID(reg, args[0])
		if err != nil {
			return err
		}
		if err := reg.Remove(id); err != nil {
			return err
		}
		display.Success(os.Stdout, "removed %s", args[0])
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <project> <new-name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := project.NewRegistry(config.FilePath())
		id, err := resolveProjectID(reg, args[0])
		if err != nil {
			return err
		}
		if err := reg.Rename(id, args[1]); err != nil {
			return err
		}
		display.Success(os.Stdout, "renamed %s to %s", args[0], args[1])
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <project> [tags...]",
	Short: "Replace a project's tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := project.NewRegistry(config.FilePath())
		id, err := resolveProjectID(reg, args[0])
		if err != nil {
			return err
		}
		return reg.UpdateTags(id, args[1:])
	},
}

var switchCmd = &cobra.Command{
	Use:     "switch <project>",
	Aliases: []string{"sw"},
	Short:   "Switch to a project (prints its path for shell integration)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := project.NewRegistry(config.FilePath())
		entry, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := reg.Touch(entry.ID, project.MachineID()); err != nil {
			return err
		}
		// Shell wrappers cd to the printed path.
		fmt.Fprintln(os.Stdout, entry.Path)
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find <path-prefix>",
	Short: "Find projects by path prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := project.NewRegistry(config.FilePath())
		projects, err := reg.FindByPathPrefix(args[0])
		if err != nil {
			return err
		}
		display.ProjectList(os.Stdout, projects)
		return nil
	},
}

// resolveProjectID accepts either a project UUID or a name/prefix.
func resolveProjectID(reg *project.Registry, ref string) (string, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}
	entry, err := reg.Resolve(ref)
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

func init() {
	initCmd.Flags().String("github-username", "", "GitHub account name")
	initCmd.Flags().String("projects-root", "", "base directory for new projects")
	addCmd.Flags().String("name", "", "project name (defaults to directory name)")
	addCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	listCmd.Flags().String("tag", "", "only projects with this tag")
	listCmd.Flags().String("language", "", "only projects with this language")
	listCmd.Flags().Int("limit", 0, "limit the number of results")

	rootCmd.AddCommand(initCmd, addCmd, listCmd, removeCmd, renameCmd, tagCmd, switchCmd, findCmd)
}
