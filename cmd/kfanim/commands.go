package main

import (
	"github.com/spf13/cobra"
)

// =============================================================================
// Animation string commands
// =============================================================================

func buildParseCmd(g *globals) *cobra.Command {
	var vf valueFlags
	cmd := &cobra.Command{
		Use:   "parse [value]",
		Short: "Decode an animation string and print its keyframes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, g, &vf, args[0])
		},
	}
	vf.register(cmd)
	return cmd
}

func buildSampleCmd(g *globals) *cobra.Command {
	var vf valueFlags
	cmd := &cobra.Command{
		Use:   "sample [value] [frame...]",
		Short: "Print the interpolated value at each frame",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, g, &vf, args[0], args[1:])
		},
	}
	vf.register(cmd)
	return cmd
}

func buildExprCmd(g *globals) *cobra.Command {
	var (
		vf       valueFlags
		variable string
	)
	cmd := &cobra.Command{
		Use:   "expr [value]",
		Short: "Print an FFmpeg expression evaluating the animation",
		Long: `Print an FFmpeg expression evaluating the animation over a frame variable.

Scalar animations give one expression. Rectangle animations give one line per
field in x, y, w, h, opacity order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpr(cmd, g, &vf, args[0], variable)
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVar(&variable, "var", "n", "Frame variable used in the expression")
	return cmd
}

// =============================================================================
// Project commands
// =============================================================================

func buildBakeCmd(g *globals) *cobra.Command {
	var (
		from, to int64
		out      string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "bake [project]",
		Short: "Evaluate every animated parameter over a frame range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBake(cmd, g, args[0], from, to, out, workers)
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "First frame")
	cmd.Flags().Int64Var(&to, "to", -1, "Last frame (default: end of the longest effect)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of workers (default: from config)")
	return cmd
}

// keyframeFlags are shared by the keyframe subcommands.
type keyframeFlags struct {
	out string
}

func (k *keyframeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&k.out, "out", "o", "", "Write the project here instead of overwriting it")
}

// buildKeyframeCmd creates the "keyframe" command group editing a project.
func buildKeyframeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyframe",
		Short: "Edit the keyframes of a project parameter",
		Long: `Edit the keyframes of a project parameter.

Every subcommand takes the project file, the effect name or id and the
parameter name, applies one operation and saves the project.`,
	}
	cmd.AddCommand(
		buildKeyframeAddCmd(g),
		buildKeyframeRemoveCmd(g),
		buildKeyframeMoveCmd(g),
		buildKeyframeTypeCmd(g),
		buildKeyframeOffsetCmd(g),
		buildKeyframeClearCmd(g),
	)
	return cmd
}

func buildKeyframeAddCmd(g *globals) *cobra.Command {
	var (
		kf  keyframeFlags
		typ string
	)
	cmd := &cobra.Command{
		Use:   "add [project] [effect] [param] [frame] [value]",
		Short: "Add a keyframe or update the one at frame",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeAdd(cmd, g, &kf, args, typ)
		},
	}
	kf.register(cmd)
	cmd.Flags().StringVarP(&typ, "type", "t", "linear", "Keyframe type (linear, discrete, curve)")
	return cmd
}

func buildKeyframeRemoveCmd(g *globals) *cobra.Command {
	var kf keyframeFlags
	cmd := &cobra.Command{
		Use:   "remove [project] [effect] [param] [frame]",
		Short: "Remove the keyframe at frame",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeRemove(cmd, g, &kf, args)
		},
	}
	kf.register(cmd)
	return cmd
}

func buildKeyframeMoveCmd(g *globals) *cobra.Command {
	var kf keyframeFlags
	cmd := &cobra.Command{
		Use:   "move [project] [effect] [param] [from] [to]",
		Short: "Move one keyframe",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeMove(cmd, g, &kf, args)
		},
	}
	kf.register(cmd)
	return cmd
}

func buildKeyframeTypeCmd(g *globals) *cobra.Command {
	var kf keyframeFlags
	cmd := &cobra.Command{
		Use:   "type [project] [effect] [param] [frame] [type]",
		Short: "Change the interpolation type of a keyframe",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeType(cmd, g, &kf, args)
		},
	}
	kf.register(cmd)
	return cmd
}

func buildKeyframeOffsetCmd(g *globals) *cobra.Command {
	var kf keyframeFlags
	cmd := &cobra.Command{
		Use:   "offset [project] [effect] [param] [from] [to]",
		Short: "Shift the keyframe at from and every later one by to-from",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeOffset(cmd, g, &kf, args)
		},
	}
	kf.register(cmd)
	return cmd
}

func buildKeyframeClearCmd(g *globals) *cobra.Command {
	var (
		kf    keyframeFlags
		after int64
	)
	cmd := &cobra.Command{
		Use:   "clear [project] [effect] [param]",
		Short: "Remove every keyframe except the first",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyframeClear(cmd, g, &kf, args, after)
		},
	}
	kf.register(cmd)
	cmd.Flags().Int64Var(&after, "after", -1, "Only remove keyframes after this frame")
	return cmd
}

func buildWatchCmd(g *globals) *cobra.Command {
	var debounce string
	cmd := &cobra.Command{
		Use:   "watch [project]",
		Short: "Reload a project whenever the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, args[0], debounce)
		},
	}
	cmd.Flags().StringVar(&debounce, "debounce", "200ms", "Delay grouping bursts of file events")
	return cmd
}
