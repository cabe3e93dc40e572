package task

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/kballard/go-shellquote"
)

// Kind names the processing a task performs. It is part of task IDs and
// output names.
const Kind = "ndvi"

// OutputName returns the output base name, without extension, for a scene.
func OutputName(sceneID string) string {
	return Kind + "__" + sceneID
}

// Builder creates one Task per scene from the task configuration.
type Builder struct {
	conf config.Task
	tpl  *template.Template
	now  func() time.Time
}

// NewBuilder parses the command template and returns a new Builder.
func NewBuilder(conf config.Task) (*Builder, error) {
	tpl, err := template.New("command").
		Funcs(template.FuncMap{"quote": quote}).
		Option("missingkey=error").
		Parse(conf.CommandTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing command template: %w", err)
	}
	return &Builder{conf: conf, tpl: tpl, now: time.Now}, nil
}

// Build returns the task descriptor for a scene. Task outputs matching
// "<output>.tif" are uploaded to destination when the task completes.
func (b *Builder) Build(scene catalog.Scene, destination string) (*Task, error) {
	red, err := scene.Asset(b.conf.RedBand)
	if err != nil {
		return nil, err
	}
	nir, err := scene.Asset(b.conf.NIRBand)
	if err != nil {
		return nil, err
	}

	t := &Task{
		ID:                  NewTaskID(b.conf.User, Kind, b.now()),
		SceneID:             scene.ID,
		Red:                 red,
		NIR:                 nir,
		Output:              OutputName(scene.ID),
		Image:               b.conf.Image,
		ContainerRunOptions: b.conf.ContainerRunOptions,
		Retention:           b.conf.Retention.AsDuration(),
	}

	var buf bytes.Buffer
	err = b.tpl.Execute(&buf, map[string]interface{}{
		"TaskID":  t.ID,
		"SceneID": t.SceneID,
		"Red":     t.Red,
		"NIR":     t.NIR,
		"Output":  t.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering command for scene %s: %w", scene.ID, err)
	}
	t.CommandLine = strings.TrimSpace(buf.String())

	t.OutputFiles = []OutputFile{{
		FilePattern: t.Output + ".tif",
		Destination: destination,
		Condition:   TaskCompletion,
	}}

	return t, nil
}

func quote(s string) string {
	return shellquote.Join(s)
}
