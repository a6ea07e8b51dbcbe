package console_test

import (
	"bytes"
	"testing"

	"github.com/julien-sobczak/mermaid-export/pkg/console"
	"gotest.tools/assert"
)

func TestProgressLog(t *testing.T) {
	var out bytes.Buffer

	l := console.NewProgressLog(2,
		// Override options for unit-testing purposes
		console.ToWriter(&out),
		console.LineLength(30))

	l.Start("Exporting...")
	l.Step("Design.md")
	l.Step("Überblick.md")
	l.Done("2 diagrams exported!")

	expected := "" +
		"           (0/2) Exporting... \r" +
		"#####      (1/2) Design.md    \r" +
		"########## (2/2) Überblick.md \r" +
		"2 diagrams exported!          \n"
	assert.Equal(t, out.String(), expected)
}

func TestProgressLogPercent(t *testing.T) {
	var out bytes.Buffer

	l := console.NewProgressLog(4,
		console.ShowPercent(),
		console.HideBar(),
		console.ToWriter(&out),
		console.LineLength(20))

	for i := 0; i < 5; i++ {
		// Extra steps are ignored
		l.Step("Processing a very long note name")
	}
	l.Done("")

	expected := "" +
		"( 25%) Processing a \r" +
		"( 50%) Processing a \r" +
		"( 75%) Processing a \r" +
		"(100%) Processing a \r" +
		"(100%) Processing a \r" +
		"                    \r"
	assert.Equal(t, out.String(), expected)
}

func TestProgressLogEmpty(t *testing.T) {
	var out bytes.Buffer

	l := console.NewProgressLog(0, console.ToWriter(&out), console.LineLength(25))
	l.Start("Nothing")

	assert.Equal(t, out.String(), "########## (0/0) Nothing \r")
}
