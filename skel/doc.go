/*
Package skel provides the core value types shared across the skeletonization
pipeline: 3d points, bounding boxes with a reversible token encoding, voxel
masks and scalar fields, the skeleton graph itself, leveled logging, and the
serialization envelope used for persisted values.
*/
package skel
