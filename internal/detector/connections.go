package detector

// JointPair is a wireframe edge between two joints.
type JointPair struct {
	From Joint
	To   Joint
}

// Connections lists the wireframe edges drawn over a hand: each finger as a
// chain from the wrist, plus the bar across the knuckles.
var Connections = []JointPair{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMP}, {ThumbMP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{Wrist, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{Wrist, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{Wrist, LittleMCP}, {LittleMCP, LittlePIP}, {LittlePIP, LittleDIP}, {LittleDIP, LittleTip},

	{ThumbCMC, IndexMCP}, {IndexMCP, MiddleMCP}, {MiddleMCP, RingMCP}, {RingMCP, LittleMCP},
}

// Segment is a drawable line between two detected joint locations.
type Segment struct {
	From Point2D
	To   Point2D
}

// BuildConnections returns a segment for every connection whose endpoints were
// both detected with at least minConfidence.
func (p *Pose) BuildConnections(minConfidence float64) []Segment {
	var segments []Segment
	for _, pair := range Connections {
		a, ok := p.Keypoint(pair.From)
		if !ok || !(a.Confidence >= minConfidence) {
			continue
		}
		b, ok := p.Keypoint(pair.To)
		if !ok || !(b.Confidence >= minConfidence) {
			continue
		}
		segments = append(segments, Segment{From: a.Location, To: b.Location})
	}
	return segments
}
