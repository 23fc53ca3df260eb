package testsupport

import (
	"strconv"

	"github.com/jsphweid/chordfuse/model"
)

func formatInterval(iv model.LabeledInterval) string {
	return strconv.FormatFloat(iv.Start, 'f', -1, 64) + "-" + strconv.FormatFloat(iv.End, 'f', -1, 64) + " " + iv.Label.String()
}
