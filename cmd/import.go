package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/store"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import evaluation records from a YAML fixture",
	Long:  "Loads projects, questions, assignments, answer attempts and score documents from a YAML file into the record store. Records without an ID get a generated UUID.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		fx, err := loadFixture(importFilePath)
		if err != nil {
			return err
		}

		n, err := importFixture(ctx, st, fx)
		if err != nil {
			return eris.Wrap(err, "import fixture")
		}

		zap.L().Info("import complete",
			zap.Int("records", n),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to YAML fixture (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

// fixture is the on-disk shape of an import file.
type fixture struct {
	Projects       []model.Project             `yaml:"projects"`
	Questions      []model.Question            `yaml:"questions"`
	Assignments    []model.EvaluatorAssignment `yaml:"assignments"`
	Attempts       []model.AnswerAttempt       `yaml:"attempts"`
	ScoreDocuments []model.ScoreDocument       `yaml:"score_documents"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read fixture %s", path)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, eris.Wrapf(err, "parse fixture %s", path)
	}
	return &fx, nil
}

// importFixture writes all fixture records to the store, generating
// UUIDs where IDs are missing, and returns the record count.
func importFixture(ctx context.Context, st store.Store, fx *fixture) (int, error) {
	n := 0

	for _, p := range fx.Projects {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := st.PutProject(ctx, p); err != nil {
			return n, err
		}
		n++
	}
	for _, q := range fx.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := st.PutQuestion(ctx, q); err != nil {
			return n, err
		}
		n++
	}
	for _, a := range fx.Assignments {
		if err := st.PutAssignment(ctx, a); err != nil {
			return n, err
		}
		n++
	}
	for _, at := range fx.Attempts {
		if at.ID == "" {
			at.ID = uuid.NewString()
		}
		if err := st.PutAttempt(ctx, at); err != nil {
			return n, err
		}
		n++
	}
	for _, d := range fx.ScoreDocuments {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if err := st.PutScoreDocument(ctx, d); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}
