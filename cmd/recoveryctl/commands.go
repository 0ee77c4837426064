package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/flows"
	"recovery-plan/internal/services"
	"recovery-plan/internal/utils"
)

type dayView struct {
	Condition string        `yaml:"condition"`
	Day       int           `yaml:"day"`
	Date      string        `yaml:"date"`
	Period    string        `yaml:"period,omitempty"`
	Tasks     []dayViewTask `yaml:"tasks"`
	Saved     bool          `yaml:"saved"`
}

type dayViewTask struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
	Icon string `yaml:"icon"`
	Done bool   `yaml:"done"`
}

func newDayView(cond services.ActiveCondition, plan *services.DayPlanResult, done *services.CompletionSet) dayView {
	view := dayView{
		Condition: cond.Name,
		Day:       plan.DayNumber,
		Date:      plan.PlanDate,
		Saved:     plan.Persisted,
		Tasks:     []dayViewTask{},
	}
	if plan.OutOfPeriod {
		view.Period = "outside plan"
	}
	for _, t := range plan.Tasks {
		view.Tasks = append(view.Tasks, dayViewTask{ID: t.ID, Text: t.Text, Icon: t.Icon, Done: done.Contains(t.ID)})
	}
	return view
}

func printDay(w io.Writer, view dayView) {
	fmt.Fprintf(w, "📅 %s · day %d of %d · %s\n", view.Condition, view.Day, services.PlanLength, view.Date)
	if view.Period != "" {
		fmt.Fprintln(w, "No tasks: the date is outside the plan period.")
		return
	}
	for _, t := range view.Tasks {
		fmt.Fprintf(w, "%s %s %-14s %s\n", utils.CheckMark(t.Done), utils.IconEmoji(t.Icon), t.ID, t.Text)
	}
}

// addPlanCommands adds the day plan and progress commands
func (a *App) addPlanCommands(rootCmd *cobra.Command) {
	conditionsCmd := &cobra.Command{
		Use:   "conditions",
		Short: "List the recovery plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conditions := catalog.Default().Conditions()
			return a.render(cmd.OutOrStdout(), conditions, func(w io.Writer) {
				for _, c := range conditions {
					fmt.Fprintf(w, "%-28s %s\n", c.Key, c.Name)
				}
			})
		},
	}

	var key, name, date string

	dayCmd := &cobra.Command{
		Use:   "day",
		Short: "Show the tasks of a plan day",
		Long: `Show the tasks of a plan day, generating and storing them on first view.
The plan starts the first time a condition is opened by the client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cond, err := a.condition(key, name)
			if err != nil {
				return err
			}
			planDate, err := a.date(date)
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			sm := a.services
			plan, err := sm.DayPlans.GetDayTasks(cmd.Context(), client, cond.Key, cond.Name, planDate)
			if err != nil {
				return err
			}
			done, err := sm.Completion.LoadCompletion(cmd.Context(), client.Session, cond.Key, plan.PlanDate)
			if err != nil {
				return err
			}
			view := newDayView(cond, plan, done)
			return a.render(cmd.OutOrStdout(), view, func(w io.Writer) { printDay(w, view) })
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <task-id>...",
		Short: "Toggle tasks of a day and save the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := a.condition(key, name)
			if err != nil {
				return err
			}
			planDate, err := a.date(date)
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			sm := a.services
			plan, err := sm.DayPlans.GetDayTasks(cmd.Context(), client, cond.Key, cond.Name, planDate)
			if err != nil {
				return err
			}
			done, err := sm.Completion.LoadCompletion(cmd.Context(), client.Session, cond.Key, plan.PlanDate)
			if err != nil {
				return err
			}

			for _, id := range args {
				found := false
				for _, task := range plan.Tasks {
					if task.ID == id {
						done.Toggle(task)
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("%w: no task %q on %s", services.ErrInvalidInput, id, plan.PlanDate)
				}
			}

			if err := sm.Completion.SaveCompletion(cmd.Context(), client.Session, cond.Key, plan.PlanDate, done); err != nil {
				return err
			}
			view := newDayView(cond, plan, done)
			return a.render(cmd.OutOrStdout(), view, func(w io.Writer) { printDay(w, view) })
		},
	}

	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Summarize saved progress for a plan",
		Long:  `Summarize saved progress for a plan. Without --condition, list the plans that have progress.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			sm := a.services

			if key == "" {
				conditions, err := sm.Progress.ConditionsWithProgress(cmd.Context(), client.Session)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), conditions, func(w io.Writer) {
					if len(conditions) == 0 {
						fmt.Fprintln(w, "No saved progress yet.")
					}
					for _, c := range conditions {
						fmt.Fprintf(w, "%-28s %s\n", c.Key, c.Name)
					}
				})
			}

			cond, err := a.condition(key, name)
			if err != nil {
				return err
			}
			report, err := sm.Progress.SummarizeCondition(cmd.Context(), client.Session, cond.Key, cond.Name)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), report.Summary, func(w io.Writer) {
				s := report.Summary
				fmt.Fprintf(w, "📊 %s\n%d task(s) over %d day(s)\n\n%s\n\n%s\n\n%s\n",
					s.Title, report.TotalCompleted, len(report.History), s.Summary, s.Benefits, s.Lookahead)
			})
		},
	}

	for _, c := range []*cobra.Command{dayCmd, toggleCmd, progressCmd} {
		c.Flags().StringVarP(&key, "condition", "c", "", "condition key")
		c.Flags().StringVar(&name, "name", "", "display name of a dynamic plan")
	}
	for _, c := range []*cobra.Command{dayCmd, toggleCmd} {
		c.Flags().StringVarP(&date, "date", "d", "", "plan date YYYY-MM-DD (default today)")
		_ = c.MarkFlagRequired("condition")
	}

	rootCmd.AddCommand(conditionsCmd, dayCmd, toggleCmd, progressCmd)
}

// addAssistantCommands adds classification and motivation commands
func (a *App) addAssistantCommands(rootCmd *cobra.Command) {
	var file string

	classifyCmd := &cobra.Command{
		Use:   "classify [symptoms]",
		Short: "Match symptoms or a prescription to a plan",
		Long: `Match free-text symptoms, or a prescription image or PDF given with --file,
to a recovery plan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := a.Services()
			if err != nil {
				return err
			}

			if file != "" {
				doc, err := readDocument(file)
				if err != nil {
					return err
				}
				result, err := sm.Classifier.ClassifyFromDocument(cmd.Context(), doc)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), result, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n%s\n", sm.Catalog.Name(result.ConditionKey), result.ConditionKey, result.Reasoning)
				})
			}

			result, err := sm.Classifier.ClassifyFromText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s, dynamic: %t)\n%s\n", result.ConditionName, result.ConditionKey, result.Dynamic(), result.Reasoning)
			})
		},
	}
	classifyCmd.Flags().StringVarP(&file, "file", "f", "", "prescription image or PDF")

	motivateCmd := &cobra.Command{
		Use:   "motivate <completion-rate>",
		Short: "Write encouragement for a completion rate between 0 and 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("%w: rate must be a number", services.ErrInvalidInput)
			}
			sm, err := a.Services()
			if err != nil {
				return err
			}
			text, err := sm.Motivation.Feedback(cmd.Context(), rate)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	rootCmd.AddCommand(classifyCmd, motivateCmd)
}

func readDocument(path string) (flows.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return flows.Document{}, err
	}
	return flows.Document{MIMEType: mimeType(path, data), Data: data}, nil
}

func mimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := utils.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
	}
	return t, nil
}
