// Package visual implements the state-driven background animation engine.
//
// The engine owns a single in-flight transition between two VisualParams
// sets. On every state change it captures whatever is *currently displayed*
// as the new start point, so retargeting mid-transition never produces a
// visible jump (C0 continuity). Progress is computed from an injected Clock
// rather than wall time directly, which keeps the interpolation logic fully
// testable without a display or real elapsed time.
//
// Easing is asymmetric across the parameter set: motion parameters (speed,
// intensity, noise scale, distortion) use quintic ease-in-out, while the two
// blend colors use the gentler quartic curve to avoid perceptually abrupt
// hue shifts.
//
// Rendering is split out into Renderer, a pure function of (pixel position,
// elapsed time, params) that layers five octaves of value noise into a
// fractal flow field, advects a rotation angle with time, warps a second
// noise sample with it, and blends the two state colors through a smoothstep
// threshold. The engine itself never touches a surface; hosts (the
// swirlview binary) pull frames and params at their own frame rate, and a
// host without a surface simply never calls Render.
package visual
