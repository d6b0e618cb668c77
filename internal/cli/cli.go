// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/chtree/internal/changes"
	"github.com/temirov/chtree/internal/changetree"
	"github.com/temirov/chtree/internal/config"
	"github.com/temirov/chtree/internal/output"
	"github.com/temirov/chtree/internal/services/clipboard"
	"github.com/temirov/chtree/internal/types"
	"github.com/temirov/chtree/internal/utils"
)

const (
	formatFlagName      = "format"
	backendFlagName     = "backend"
	inputFlagName       = "input"
	configFlagName      = "config"
	summaryFlagName     = "summary"
	colorFlagName       = "color"
	rootChangesFlagName = "root-changes"
	verifyFlagName      = "verify"
	copyFlagName        = "copy"
	copyOnlyFlagName    = "copy-only"
	verboseFlagName     = "verbose"
	globalFlagName      = "global"
	forceFlagName       = "force"

	versionTemplate      = "chtree version: {{.Version}}\n"
	defaultPath          = "."
	rootUse              = "chtree"
	rootShortDescription = "chtree command line interface"
	rootLongDescription  = `chtree shows the pending changes of git repositories as a folder tree.
Each changed file is listed under the folder that directly contains it.
Use --format to select raw, json, xml, or yaml output and --version to print the application version.`
	treeUse              = types.CommandTree + " [repositories...]"
	treeAlias            = "t"
	treeShortDescription = "display changes as a folder tree (" + treeAlias + ")"
	treeLongDescription  = `Collect the changed files of one or more repositories and render them as a folder tree.
Files that sit directly in a repository root are left out unless --root-changes is set.
Use --input to read change records from a JSON or YAML file ("-" for standard input) instead of git.`
	treeUsageExample = `  # Render the changes of the current repository
  chtree tree

  # Render two repositories in JSON using go-git
  chtree tree --format json --backend go-git ./api ./web

  # Render records produced by another tool
  git-export-changes | chtree tree --input -`
	initUse              = types.CommandInit
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./` + utils.ConfigFileName + ` or, with --global, to ~/` + utils.GlobalConfigDirectoryName + `/` + utils.GlobalConfigFileName + `.`

	formatFlagDescription      = "output format (raw, json, xml, yaml)"
	backendFlagDescription     = "change source (git, go-git)"
	inputFlagDescription       = "read change records from a JSON or YAML file instead of git"
	configFlagDescription      = "configuration file to use instead of ./" + utils.ConfigFileName
	summaryFlagDescription     = "include a summary of each tree"
	colorFlagDescription       = "colorize statuses in raw output"
	rootChangesFlagDescription = "attach files at the repository root to the root folder"
	verifyFlagDescription      = "check structural invariants of every built tree"
	copyFlagDescription        = "copy the rendered output to the clipboard"
	copyOnlyFlagDescription    = "copy the rendered output to the clipboard without printing it"
	verboseFlagDescription     = "enable debug logging"
	globalFlagDescription      = "write the global configuration"
	forceFlagDescription       = "overwrite an existing configuration file"

	invalidFormatMessage        = "invalid format value '%s'"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
	errorNoValidPaths           = "no valid paths"
	errorVerifyFormat           = "verify tree for %s: %w"
	errorCopyFormat             = "copy output to clipboard: %w"
	errorAllSourcesFailedFormat = "no changes collected: %w"
	initResultFormat            = "configuration written to %s\n"

	skippingRepositoryMessage = "skipping repository"
	collectedChangesMessage   = "collected changes"
)

// SourceFactory returns the change source for a backend name.
type SourceFactory func(backend string, logger *zap.Logger) (changes.Source, error)

// Dependencies are the collaborators of the command tree. Zero values fall
// back to the process environment.
type Dependencies struct {
	Logger *zap.Logger
	// LogLevel is the level Logger was built on. --verbose raises it to debug.
	LogLevel         *zap.AtomicLevel
	Stdout           io.Writer
	Stderr           io.Writer
	Copier           clipboard.Copier
	SourceFactory    SourceFactory
	WorkingDirectory string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	if dependencies.SourceFactory == nil {
		dependencies.SourceFactory = changes.SourceForBackend
	}
	return dependencies
}

// Execute runs the chtree application.
func Execute(logger *zap.Logger, logLevel *zap.AtomicLevel) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger, LogLevel: logLevel})
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var verbose bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Version:      utils.GetApplicationVersion(),
		SilenceUsage: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			applyLogLevel(dependencies.LogLevel, verbose)
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	registerToggleFlag(rootCommand.PersistentFlags(), &verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		createTreeCommand(dependencies),
		createInitCommand(dependencies),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func applyLogLevel(logLevel *zap.AtomicLevel, verbose bool) {
	if logLevel == nil {
		return
	}
	if verbose {
		logLevel.SetLevel(zapcore.DebugLevel)
		return
	}
	logLevel.SetLevel(zapcore.InfoLevel)
}

// treeFlags stores the raw flag values of the tree command.
type treeFlags struct {
	format      string
	backend     string
	input       string
	configPath  string
	summary     bool
	color       bool
	rootChanges bool
	verify      bool
	copy        bool
	copyOnly    bool
}

// treeSettings are the effective options after merging flags over configuration.
type treeSettings struct {
	format      string
	backend     string
	input       string
	summary     bool
	color       bool
	rootChanges bool
	verify      bool
	copy        bool
	copyOnly    bool
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(dependencies Dependencies) *cobra.Command {
	var flags treeFlags

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := resolveWorkingDirectory(dependencies.WorkingDirectory)
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: workingDirectory,
				ExplicitFilePath: flags.configPath,
			})
			if configurationError != nil {
				return configurationError
			}
			settings := mergeTreeSettings(command, flags, configuration.Tree)
			if !output.IsSupportedFormat(settings.format) {
				return fmt.Errorf(invalidFormatMessage, settings.format)
			}
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			return runTree(command.Context(), dependencies, settings, workingDirectory, arguments)
		},
	}

	flagSet := treeCommand.Flags()
	flagSet.StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	flagSet.StringVar(&flags.backend, backendFlagName, types.BackendGit, backendFlagDescription)
	flagSet.StringVar(&flags.input, inputFlagName, "", inputFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	registerToggleFlag(flagSet, &flags.summary, summaryFlagName, true, summaryFlagDescription)
	registerToggleFlag(flagSet, &flags.color, colorFlagName, false, colorFlagDescription)
	registerToggleFlag(flagSet, &flags.rootChanges, rootChangesFlagName, false, rootChangesFlagDescription)
	registerToggleFlag(flagSet, &flags.verify, verifyFlagName, false, verifyFlagDescription)
	registerToggleFlag(flagSet, &flags.copy, copyFlagName, false, copyFlagDescription)
	registerToggleFlag(flagSet, &flags.copyOnly, copyOnlyFlagName, false, copyOnlyFlagDescription)
	return treeCommand
}

// mergeTreeSettings applies explicitly set flags over configuration values
// over flag defaults.
func mergeTreeSettings(command *cobra.Command, flags treeFlags, configuration config.TreeConfiguration) treeSettings {
	changed := func(name string) bool {
		return command.Flags().Changed(name)
	}
	pickString := func(name string, flagValue string, configured string) string {
		if changed(name) {
			return flagValue
		}
		return config.StringOrDefault(configured, flagValue)
	}
	pickBool := func(name string, flagValue bool, configured *bool) bool {
		if changed(name) {
			return flagValue
		}
		return config.BoolOrDefault(configured, flagValue)
	}

	copySettings := configuration.CopySettings()
	settings := treeSettings{
		format:      strings.ToLower(pickString(formatFlagName, flags.format, configuration.Format)),
		backend:     pickString(backendFlagName, flags.backend, configuration.Backend),
		input:       flags.input,
		summary:     pickBool(summaryFlagName, flags.summary, configuration.Summary),
		color:       pickBool(colorFlagName, flags.color, configuration.Color),
		rootChanges: pickBool(rootChangesFlagName, flags.rootChanges, configuration.RootChanges),
		verify:      pickBool(verifyFlagName, flags.verify, configuration.Verify),
		copy:        pickBool(copyFlagName, flags.copy, copySettings.Copy),
		copyOnly:    pickBool(copyOnlyFlagName, flags.copyOnly, copySettings.CopyOnly),
	}
	if settings.copyOnly {
		settings.copy = true
	}
	return settings
}

// treeJob is one tree to build: a label for output and the root handed to its source.
type treeJob struct {
	label  string
	root   string
	source changes.Source
}

func runTree(ctx context.Context, dependencies Dependencies, settings treeSettings, workingDirectory string, arguments []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	jobs, jobsError := planTreeJobs(dependencies, settings, workingDirectory, arguments)
	if jobsError != nil {
		return jobsError
	}

	trees := make([]*types.ChangeTreeOutput, len(jobs))
	failures := make([]error, len(jobs))
	buildOptions := changetree.Options{IncludeRootChanges: settings.rootChanges}

	group, groupContext := errgroup.WithContext(ctx)
	for jobIndex, job := range jobs {
		jobIndex, job := jobIndex, job
		group.Go(func() error {
			records, collectError := job.source.Collect(groupContext, job.root)
			if collectError != nil {
				failures[jobIndex] = collectError
				return nil
			}
			dependencies.Logger.Debug(collectedChangesMessage, zap.String("root", job.label), zap.Int("records", len(records)))
			root := changetree.BuildWithOptions(records, buildOptions)
			if settings.verify {
				if verifyError := changetree.Verify(root); verifyError != nil {
					return fmt.Errorf(errorVerifyFormat, job.label, verifyError)
				}
			}
			tree := output.NewChangeTreeOutput(job.label, root, settings.summary)
			trees[jobIndex] = &tree
			return nil
		})
	}
	if groupError := group.Wait(); groupError != nil {
		return groupError
	}

	var rendered []types.ChangeTreeOutput
	var firstFailure error
	for jobIndex, job := range jobs {
		if failures[jobIndex] != nil {
			dependencies.Logger.Warn(skippingRepositoryMessage, zap.String("root", job.label), zap.Error(failures[jobIndex]))
			if firstFailure == nil {
				firstFailure = failures[jobIndex]
			}
			continue
		}
		rendered = append(rendered, *trees[jobIndex])
	}
	if len(rendered) == 0 && firstFailure != nil {
		return fmt.Errorf(errorAllSourcesFailedFormat, firstFailure)
	}

	text, renderError := output.Render(settings.format, rendered, output.RenderOptions{Color: settings.color && !settings.copy})
	if renderError != nil {
		return renderError
	}
	if !settings.copyOnly {
		fmt.Fprintln(dependencies.Stdout, text)
	}
	if settings.copy {
		if copyError := dependencies.Copier.Copy(text); copyError != nil {
			return fmt.Errorf(errorCopyFormat, copyError)
		}
	}
	return nil
}

func planTreeJobs(dependencies Dependencies, settings treeSettings, workingDirectory string, arguments []string) ([]treeJob, error) {
	if settings.input != "" {
		fileSource := changes.NewFileSource(settings.input)
		if settings.input != changes.StandardInputPath && !filepath.IsAbs(settings.input) {
			fileSource.Path = filepath.Join(workingDirectory, settings.input)
		}
		return []treeJob{{label: settings.input, source: fileSource}}, nil
	}
	source, sourceError := dependencies.SourceFactory(settings.backend, dependencies.Logger)
	if sourceError != nil {
		return nil, sourceError
	}
	validatedPaths, pathValidationError := resolveAndValidatePaths(workingDirectory, arguments)
	if pathValidationError != nil {
		return nil, pathValidationError
	}
	jobs := make([]treeJob, 0, len(validatedPaths))
	for _, validatedPath := range validatedPaths {
		jobs = append(jobs, treeJob{label: validatedPath.AbsolutePath, root: validatedPath.AbsolutePath, source: source})
	}
	return jobs, nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(dependencies.Stdout, initResultFormat, path)
			return nil
		},
	}
	registerToggleFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerToggleFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func resolveWorkingDirectory(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

// resolveAndValidatePaths converts repository arguments to absolute form and
// checks that each is an existing directory. Duplicates are dropped.
func resolveAndValidatePaths(workingDirectory string, inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		candidate := inputPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(workingDirectory, candidate)
		}
		absolutePath, absolutePathError := filepath.Abs(candidate)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if errors.Is(fileStatusError, os.ErrNotExist) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf(errorNotDirectoryFormat, inputPath)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath})
	}
	if len(result) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return result, nil
}
