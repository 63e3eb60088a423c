// Package gesture holds the gesture catalog, the emotion to gesture
// mapping, and the actuators that perform gestures on the robot.
package gesture

import (
	"time"

	"github.com/vargava/xr-emcee-demo/pkg/jsontime"
	"github.com/vargava/xr-emcee-demo/pkg/mood"
)

// Frame is one step of a gesture animation: target joint angles in
// degrees, held for Duration. Duration accepts either a duration
// string ("300ms") or integer nanoseconds in gesture files.
type Frame struct {
	Joints   map[string]float64 `json:"joints" msgpack:"joints"`
	Duration jsontime.Duration  `json:"duration" msgpack:"duration"`
}

func frameMillis(n int) jsontime.Duration {
	return jsontime.Duration(time.Duration(n) * time.Millisecond)
}

// Gesture is a named physical action. Joints are the initial pose,
// Frames the animation that follows.
type Gesture struct {
	Name        string             `json:"name" msgpack:"name"`
	Description string             `json:"description" msgpack:"description"`
	Glyph       string             `json:"glyph" msgpack:"glyph"`
	Joints      map[string]float64 `json:"joints,omitempty" msgpack:"joints,omitempty"`
	Frames      []Frame            `json:"frames,omitempty" msgpack:"frames,omitempty"`
}

const restName = "rest"

var catalog = []Gesture{
	{
		Name:        "wave",
		Description: "Wave hello with right arm",
		Glyph:       "👋",
		Joints:      map[string]float64{"r_shoulder_pitch": -60, "r_elbow_pitch": -90, "r_wrist_roll": 0},
		Frames: []Frame{
			{Joints: map[string]float64{"r_wrist_yaw": 30}, Duration: frameMillis(300)},
			{Joints: map[string]float64{"r_wrist_yaw": -30}, Duration: frameMillis(300)},
			{Joints: map[string]float64{"r_wrist_yaw": 30}, Duration: frameMillis(300)},
		},
	},
	{
		Name:        "nod",
		Description: "Nod head gently",
		Glyph:       "🤖",
		Joints:      map[string]float64{"neck_pitch": 10},
		Frames: []Frame{
			{Joints: map[string]float64{"neck_pitch": 10}, Duration: frameMillis(500)},
			{Joints: map[string]float64{"neck_pitch": -10}, Duration: frameMillis(500)},
			{Joints: map[string]float64{"neck_pitch": 0}, Duration: frameMillis(500)},
		},
	},
	{
		Name:        "spin",
		Description: "Spin enthusiastically (torso rotation)",
		Glyph:       "🌀",
		Joints:      map[string]float64{"neck_yaw": 0},
		Frames: []Frame{
			{Joints: map[string]float64{"neck_yaw": 45}, Duration: frameMillis(400)},
			{Joints: map[string]float64{"neck_yaw": -45}, Duration: frameMillis(400)},
			{Joints: map[string]float64{"neck_yaw": 0}, Duration: frameMillis(400)},
		},
	},
	{
		Name:        "tilt_head",
		Description: "Tilt head thoughtfully",
		Glyph:       "🤔",
		Joints:      map[string]float64{"neck_roll": 20},
		Frames: []Frame{
			{Joints: map[string]float64{"neck_roll": 20}, Duration: frameMillis(600)},
			{Joints: map[string]float64{"neck_roll": 0}, Duration: frameMillis(600)},
		},
	},
	{
		Name:        "dismissive_wave",
		Description: "Gentle dismissive wave (shooing motion)",
		Glyph:       "✋",
		Joints:      map[string]float64{"r_shoulder_pitch": -45, "r_elbow_pitch": -60},
		Frames: []Frame{
			{Joints: map[string]float64{"r_wrist_yaw": -20}, Duration: frameMillis(300)},
			{Joints: map[string]float64{"r_wrist_yaw": 20}, Duration: frameMillis(300)},
			{Joints: map[string]float64{"r_wrist_yaw": 0}, Duration: frameMillis(300)},
		},
	},
	{
		Name:        "celebrate",
		Description: "Raise both arms in celebration",
		Glyph:       "🙌",
		Joints: map[string]float64{
			"r_shoulder_pitch": -90,
			"l_shoulder_pitch": -90,
			"r_elbow_pitch":    -45,
			"l_elbow_pitch":    -45,
		},
		Frames: []Frame{
			{Joints: map[string]float64{"r_shoulder_pitch": -90, "l_shoulder_pitch": -90}, Duration: frameMillis(500)},
			{Joints: map[string]float64{"r_shoulder_pitch": -60, "l_shoulder_pitch": -60}, Duration: frameMillis(500)},
		},
	},
	{
		Name:        "rest",
		Description: "Return to rest position",
		Glyph:       "😌",
	},
}

var emotionGestures = map[mood.Tag]string{
	mood.Happy:           "wave",
	mood.Thinking:        "tilt_head",
	mood.Excited:         "spin",
	mood.Dismissive:      "dismissive_wave",
	mood.Neutral:         "nod",
	mood.SelfDeprecating: "spin",
	mood.Celebrating:     "celebrate",
	mood.Rest:            "rest",
}

// Lookup returns the named gesture, or the rest gesture for unknown
// names.
func Lookup(name string) Gesture {
	var rest Gesture
	for _, g := range catalog {
		if g.Name == name {
			return g
		}
		if g.Name == restName {
			rest = g
		}
	}
	return rest
}

// ForEmotion returns the gesture mapped to tag. Unmapped tags fall
// back to rest.
func ForEmotion(tag mood.Tag) Gesture {
	name, ok := emotionGestures[tag]
	if !ok {
		name = restName
	}
	return Lookup(name)
}

// Rest returns the rest gesture.
func Rest() Gesture {
	return Lookup(restName)
}

// Gestures lists the catalog in declaration order.
func Gestures() []Gesture {
	return append([]Gesture(nil), catalog...)
}

// Names lists catalog gesture names in declaration order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, g := range catalog {
		names[i] = g.Name
	}
	return names
}
