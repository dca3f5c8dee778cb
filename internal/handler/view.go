package handler

import (
	"github.com/lisperz/Test1-frazo-sub001/internal/interaction"
	"github.com/lisperz/Test1-frazo-sub001/internal/pixel"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

// minTickSpacing keeps ruler labels from colliding.
const minTickSpacing = 80

// regionView is a region plus where it is drawn on the track.
type regionView struct {
	timeline.Region
	Left        float64 `json:"left"`
	Width       float64 `json:"width"`
	Overlapping bool    `json:"overlapping,omitempty"`
	Selected    bool    `json:"selected,omitempty"`
}

// timelineView is everything a client needs to redraw the editor after a call.
type timelineView struct {
	VideoDuration float64      `json:"videoDuration"`
	CurrentTime   float64      `json:"currentTime"`
	Timecode      string       `json:"timecode"`
	Progress      float64      `json:"progress"`
	PlayheadX     float64      `json:"playheadX"`
	Regions       []regionView `json:"regions"`
	Editing       string       `json:"editing,omitempty"`

	Zoom           float64      `json:"zoom"`
	ZoomLabel      string       `json:"zoomLabel"`
	ContainerWidth float64      `json:"containerWidth"`
	TrackWidth     float64      `json:"trackWidth"`
	Ticks          []pixel.Tick `json:"ticks"`

	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
	CanSplit bool `json:"canSplit"`
	Dragging bool `json:"dragging,omitempty"`

	// SeekTo asks the client's player to move; it reports back via /playhead.
	SeekTo   *float64              `json:"seekTo,omitempty"`
	Action   interaction.Action    `json:"action,omitempty"`
	Changed  []timeline.Region     `json:"changed,omitempty"`
	Feedback *interaction.Feedback `json:"feedback,omitempty"`
}

func render(c *interaction.Controller) timelineView {
	s := c.Store()
	scale := c.Scale()
	regions := s.Regions()
	overlaps := timeline.Overlaps(regions)

	v := timelineView{
		VideoDuration:  s.Duration(),
		CurrentTime:    s.CurrentTime(),
		Timecode:       pixel.FormatTimecode(s.CurrentTime()),
		Progress:       pixel.ProgressPercentage(s.CurrentTime(), s.Duration()),
		PlayheadX:      pixel.TimeToPixels(s.CurrentTime(), scale),
		Regions:        make([]regionView, 0, len(regions)),
		Editing:        s.Editing(),
		Zoom:           scale.Zoom,
		ZoomLabel:      c.ZoomConfig().Label(scale.Zoom),
		ContainerWidth: scale.ContainerWidth,
		TrackWidth:     scale.TrackWidth(),
		Ticks:          pixel.Ticks(scale, minTickSpacing),
		CanUndo:        s.CanUndo(),
		CanRedo:        s.CanRedo(),
		CanSplit:       c.CanSplit(),
		Dragging:       c.Dragging(),
	}
	for _, r := range regions {
		left := pixel.TimeToPixels(r.StartTime, scale)
		v.Regions = append(v.Regions, regionView{
			Region:      r,
			Left:        left,
			Width:       pixel.TimeToPixels(r.EndTime, scale) - left,
			Overlapping: overlaps[r.ID],
			Selected:    r.ID == v.Editing,
		})
	}
	return v
}
