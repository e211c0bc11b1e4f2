package core

// movementCompat maps each body shape to the locomotion modes it supports.
// Amorphous is absent deliberately: it supports every mode.
var movementCompat = map[BodyShape][]Locomotion{
	ShapeAvian:      {MoveFlyer, MoveWalker},
	ShapeDraconic:   {MoveFlyer, MoveWalker, MoveSwimmer},
	ShapeSerpentine: {MoveSlitherer, MoveSwimmer, MoveBurrower},
	ShapeArachnid:   {MoveWalker, MoveCrawler, MoveBurrower},
	ShapeChitinous:  {MoveWalker, MoveCrawler, MoveBurrower},
	ShapeHumanoid:   {MoveWalker, MoveSwimmer},
	ShapeBestial:    {MoveWalker, MoveSwimmer, MoveBurrower},
	ShapeAberrant:   {MoveFloater, MovePhaser, MoveTeleporter, MoveCrawler},
}

// MovementCompatible reports whether a locomotion mode fits a body shape.
func MovementCompatible(movement Locomotion, shape BodyShape) bool {
	if shape == ShapeAmorphous {
		return true
	}
	for _, m := range movementCompat[shape] {
		if m == movement {
			return true
		}
	}
	return false
}

// DefaultMovement returns the canonical primary locomotion for a shape.
func DefaultMovement(shape BodyShape) Locomotion {
	if modes, ok := movementCompat[shape]; ok && len(modes) > 0 {
		return modes[0]
	}
	// Amorphous and anything unmapped defaults to crawling.
	return MoveCrawler
}

// CompatibleMovements returns every locomotion mode a shape supports.
func CompatibleMovements(shape BodyShape) []Locomotion {
	if shape == ShapeAmorphous {
		all := make([]Locomotion, 0, len(locomotionNames))
		for i := range locomotionNames {
			all = append(all, Locomotion(i))
		}
		return all
	}
	modes := make([]Locomotion, len(movementCompat[shape]))
	copy(modes, movementCompat[shape])
	return modes
}
