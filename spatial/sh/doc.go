// Package sh implements real spherical harmonics for Ambisonic audio:
// evaluation at directions, rotation matrices from listener orientation,
// per-degree normalization gains, and the direction conventions shared by
// the spatial packages.
//
// Conventions:
//
//   - Channels follow ACN ordering: channel index n*(n+1)+m for degree n
//     and index m in [-n, n]. Order N uses (N+1)^2 channels.
//   - Normalization is N3D (orthonormal over the sphere mean): the degree-0
//     harmonic is the constant 1. SN3D material is converted by the
//     per-degree sqrt(2n+1) gains from SN3DToN3D.
//   - Azimuth is measured counterclockwise from the front (+x) in degrees,
//     positive to the listener's left (+y). Elevation is degrees above the
//     horizontal plane (+z up).
//   - Rotation matrices use the column-vector convention v' = R * v.
//
// The rotation recurrence follows Ivanic and Ruedenberg ("Rotation Matrices
// for Real Spherical Harmonics", J. Phys. Chem. 1996, with the published
// errata), building each degree band from the band below it and the
// permuted 3x3 rotation.
package sh
